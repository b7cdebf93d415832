package appointment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbook/booking-api/internal/model"
	"github.com/medbook/booking-api/internal/repository"
	apperrors "github.com/medbook/booking-api/pkg/errors"
)

// fakeAppointmentRepo emulates the postgres repository including the partial
// unique index over active (doctor, date, time) slots.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
	// skipConflictQuery makes HasActiveConflict always report false, forcing
	// bookings through to the Create-level uniqueness check the way two
	// concurrent requests would race past the read.
	skipConflictQuery bool
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) activeSlotOccupied(doctorID uuid.UUID, date, timeToken string) bool {
	for _, apt := range f.appointments {
		if apt.DoctorID == doctorID && apt.Date == date && apt.Time == timeToken &&
			(apt.Status == model.AppointmentStatusPending || apt.Status == model.AppointmentStatusApproved) {
			return true
		}
	}
	return false
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activeSlotOccupied(apt.DoctorID, apt.Date, apt.Time) {
		return repository.ErrDuplicateSlot
	}
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()
	stored := *apt
	f.appointments[apt.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.appointments[apt.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = apt.Status
	stored.DoctorInstructions = apt.DoctorInstructions
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.DoctorID == doctorID {
			cp := *apt
			out = append(out, &cp)
		}
	}
	sortBySlot(out)
	return out, nil
}

func (f *fakeAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.PatientID == patientID {
			cp := *apt
			out = append(out, &cp)
		}
	}
	sortBySlot(out)
	return out, nil
}

// sortBySlot applies the repository ordering contract: date ascending, then
// time ascending.
func sortBySlot(appointments []*model.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}
		return appointments[i].Time < appointments[j].Time
	})
}

func (f *fakeAppointmentRepo) HasActiveConflict(_ context.Context, doctorID uuid.UUID, date, timeToken string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skipConflictQuery {
		return false, nil
	}
	return f.activeSlotOccupied(doctorID, date, timeToken), nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) ListDoctors(_ context.Context) ([]*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) SearchDoctors(_ context.Context, _ string) ([]*model.User, error) {
	return nil, nil
}

type sentNotification struct {
	UserID  uuid.UUID
	Type    string
	Message string
}

type fakeNotifSvc struct {
	mu   sync.Mutex
	sent []sentNotification
	fail bool
}

func (f *fakeNotifSvc) Notify(_ context.Context, userID uuid.UUID, notifType, message, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("notification store down")
	}
	f.sent = append(f.sent, sentNotification{UserID: userID, Type: notifType, Message: message})
	return nil
}

func (f *fakeNotifSvc) List(_ context.Context, _ uuid.UUID) ([]*model.Notification, error) {
	return nil, nil
}
func (f *fakeNotifSvc) MarkAllSeen(_ context.Context, _ uuid.UUID) error   { return nil }
func (f *fakeNotifSvc) DeleteAllSeen(_ context.Context, _ uuid.UUID) error { return nil }

// fixture wires a service against fakes with a frozen clock.
// "Now" is Monday 2024-06-03 10:30.
type fixture struct {
	svc      *Service
	repo     *fakeAppointmentRepo
	users    *fakeUserRepo
	notifs   *fakeNotifSvc
	doctorID uuid.UUID
}

var testNow = time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, decl model.AvailableSlots) *fixture {
	t.Helper()

	repo := newFakeAppointmentRepo()
	users := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	notifs := &fakeNotifSvc{}

	spec := "Cardiology"
	doctor := &model.User{
		Base:           model.Base{ID: uuid.New()},
		Name:           "Dr. A",
		Email:          "dr.a@example.com",
		Role:           model.RoleDoctor,
		Specialization: &spec,
		AvailableSlots: decl,
	}
	users.users[doctor.ID] = doctor

	svc := NewService(repo, users, notifs)
	svc.now = func() time.Time { return testNow }

	return &fixture{svc: svc, repo: repo, users: users, notifs: notifs, doctorID: doctor.ID}
}

func bookingReq(doctorID uuid.UUID, date, timeToken string) *model.BookAppointmentRequest {
	return &model.BookAppointmentRequest{
		DoctorID:    doctorID.String(),
		Date:        date,
		Time:        timeToken,
		DoctorInfo:  model.PartySnapshot{Name: "Dr. A", Specialization: "Cardiology"},
		PatientInfo: model.PartySnapshot{Name: "Pat One", Email: "pat@example.com"},
	}
}

func mondayDecl(tokens ...string) model.AvailableSlots {
	return model.AvailableSlots{{Day: "Monday", TimeSlots: tokens}}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestBookHappyPath(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00", "10:00", "11:00"))

	patientID := uuid.New()
	apt, err := f.svc.Book(context.Background(), patientID, bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, f.doctorID, apt.DoctorID)
	assert.Equal(t, patientID, apt.PatientID)
	assert.Equal(t, "Pat One", apt.PatientInfo.Name)

	require.Len(t, f.notifs.sent, 1)
	assert.Equal(t, f.doctorID, f.notifs.sent[0].UserID)
	assert.Equal(t, model.NotificationNewAppointmentRequest, f.notifs.sent[0].Type)
	assert.Contains(t, f.notifs.sent[0].Message, "Pat One")
}

func TestBookValidationOrder(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))

	cases := []struct {
		name string
		date string
		time string
		code apperrors.ErrorCode
	}{
		{"missing date", "", "09:00", apperrors.ErrMissingField},
		{"missing time", "2024-06-10", "", apperrors.ErrMissingField},
		{"invalid date", "10-06-2024", "09:00", apperrors.ErrInvalidDate},
		{"past date", "2024-06-02", "09:00", apperrors.ErrPastDate},
		{"past time today", "2024-06-03", "09:00", apperrors.ErrPastTime},
		{"undeclared weekday", "2024-06-11", "09:00", apperrors.ErrDoctorUnavailable},
		{"undeclared token", "2024-06-10", "10:00", apperrors.ErrDoctorUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, tc.date, tc.time))
			assertCode(t, err, tc.code)
		})
	}

	// None of the failed bookings may have persisted anything.
	assert.Empty(t, f.repo.appointments)
}

func TestBookTodayLaterTimeAllowed(t *testing.T) {
	// Now is Monday 10:30; 11:00 today is still bookable.
	f := newFixture(t, mondayDecl("09:00", "11:00"))

	_, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-03", "11:00"))
	require.NoError(t, err)
}

func TestBookNoDeclarationSkipsAvailabilityCheck(t *testing.T) {
	f := newFixture(t, nil)

	// The slot was never declared, but the doctor has no declaration at all.
	_, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-12", "16:00"))
	require.NoError(t, err)
}

func TestBookUnknownDoctor(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))

	_, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(uuid.New(), "2024-06-10", "09:00"))
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestBookSlotTaken(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))

	_, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	assertCode(t, err, apperrors.ErrSlotTaken)
}

func TestBookRaceClosedByStorageConstraint(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))
	// Both requests pass the conflict query, as they would when racing.
	f.repo.skipConflictQuery = true

	_, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	assertCode(t, err, apperrors.ErrSlotTaken)

	active := 0
	for _, apt := range f.repo.appointments {
		if !apt.Status.Terminal() {
			active++
		}
	}
	assert.Equal(t, 1, active, "only one active appointment may hold the slot")
}

func TestBookCancelledSlotRebookable(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))

	apt, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), apt.ID)
	require.NoError(t, err)

	// A cancelled appointment no longer blocks the slot.
	_, err = f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)
}

func TestBookNotificationFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))
	f.notifs.fail = true

	apt, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))

	req := &model.CheckAvailabilityRequest{DoctorID: f.doctorID.String(), Date: "2024-06-10", Time: "09:00"}
	require.NoError(t, f.svc.CheckAvailability(context.Background(), req))

	_, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	assertCode(t, f.svc.CheckAvailability(context.Background(), req), apperrors.ErrSlotTaken)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00", "10:00"))
	ctx := context.Background()
	patientID := uuid.New()

	apt, err := f.svc.Book(ctx, patientID, bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	approved, err := f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusApproved, approved.Status)

	completed, err := f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted, "Take rest")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)
	assert.Equal(t, "Take rest", completed.DoctorInstructions)

	// Read back through the query path.
	list, err := f.svc.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.AppointmentStatusCompleted, list[0].Status)
	assert.Equal(t, "Take rest", list[0].DoctorInstructions)

	// Patient is notified of each doctor-driven change.
	var patientNotifs int
	for _, n := range f.notifs.sent {
		if n.UserID == patientID {
			patientNotifs++
		}
	}
	assert.Equal(t, 2, patientNotifs)
}

func TestUpdateStatusIllegalTransitions(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	// pending → completed skips approval.
	_, err = f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted, "")
	assertCode(t, err, apperrors.ErrIllegalTransition)

	_, err = f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusRejected, "")
	require.NoError(t, err)

	// rejected is terminal.
	_, err = f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusApproved, "")
	assertCode(t, err, apperrors.ErrIllegalTransition)
}

func TestUpdateStatusNotFound(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), model.AppointmentStatusApproved, "")
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestCancelPendingNotifiesDoctor(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	last := f.notifs.sent[len(f.notifs.sent)-1]
	assert.Equal(t, f.doctorID, last.UserID)
	assert.Equal(t, model.NotificationAppointmentCancelled, last.Type)
}

func TestCancelCompletedRejected(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusApproved, "")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted, "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, apt.ID)
	assertCode(t, err, apperrors.ErrIllegalTransition)
}

func TestListByPatientIsolation(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00", "10:00", "11:00"))
	ctx := context.Background()

	p1, p2 := uuid.New(), uuid.New()

	_, err := f.svc.Book(ctx, p1, bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, p2, bookingReq(f.doctorID, "2024-06-10", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, p2, bookingReq(f.doctorID, "2024-06-10", "11:00"))
	require.NoError(t, err)

	list, err := f.svc.ListByPatient(ctx, p1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p1, list[0].PatientID)

	list, err = f.svc.ListByPatient(ctx, p2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBookRejectsInvalidTimeToken(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))

	// Future-dated bookings must not slip past the vocabulary check just
	// because the same-day clock comparison never runs.
	for _, tok := range []string{"banana", "9am", "09:30", "13:00"} {
		_, err := f.svc.Book(context.Background(), uuid.New(), bookingReq(f.doctorID, "2024-06-10", tok))
		assertCode(t, err, apperrors.ErrBadRequest)
	}

	assert.Empty(t, f.repo.appointments)
}

func TestListOrderedByDateThenTime(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))
	ctx := context.Background()
	patientID := uuid.New()

	// Seed out of order; the repository contract returns date ascending,
	// then time ascending.
	for _, slot := range []struct{ date, tok string }{
		{"2024-06-17", "10:00"},
		{"2024-06-10", "16:00"},
		{"2024-06-17", "09:00"},
		{"2024-06-10", "09:00"},
	} {
		require.NoError(t, f.repo.Create(ctx, &model.Appointment{
			DoctorID:  f.doctorID,
			PatientID: patientID,
			Date:      slot.date,
			Time:      slot.tok,
			Status:    model.AppointmentStatusPending,
		}))
	}

	want := []struct{ date, tok string }{
		{"2024-06-10", "09:00"},
		{"2024-06-10", "16:00"},
		{"2024-06-17", "09:00"},
		{"2024-06-17", "10:00"},
	}

	byDoctor, err := f.svc.ListByDoctor(ctx, f.doctorID)
	require.NoError(t, err)
	require.Len(t, byDoctor, len(want))
	for i, w := range want {
		assert.Equal(t, w.date, byDoctor[i].Date, "doctor list position %d", i)
		assert.Equal(t, w.tok, byDoctor[i].Time, "doctor list position %d", i)
	}

	byPatient, err := f.svc.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	require.Len(t, byPatient, len(want))
	for i, w := range want {
		assert.Equal(t, w.date, byPatient[i].Date, "patient list position %d", i)
		assert.Equal(t, w.tok, byPatient[i].Time, "patient list position %d", i)
	}
}

func TestBookFillsDoctorSnapshotWhenEmpty(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00"))

	req := bookingReq(f.doctorID, "2024-06-10", "09:00")
	req.DoctorInfo = model.PartySnapshot{}

	apt, err := f.svc.Book(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PartySnapshot{
		Name:           "Dr. A",
		Email:          "dr.a@example.com",
		Specialization: "Cardiology",
	}, apt.DoctorInfo)
}

// Full walkthrough: declare availability, book, collide, approve, complete.
func TestBookingLifecycle(t *testing.T) {
	f := newFixture(t, mondayDecl("09:00", "10:00"))
	ctx := context.Background()
	patient := uuid.New()

	// Monday 2024-06-03 is "today" in the fixture; book the following Monday.
	apt, err := f.svc.Book(ctx, patient, bookingReq(f.doctorID, "2024-06-10", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)

	_, err = f.svc.Book(ctx, uuid.New(), bookingReq(f.doctorID, "2024-06-10", "09:00"))
	assertCode(t, err, apperrors.ErrSlotTaken)

	_, err = f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusApproved, "")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted, "Take rest")
	require.NoError(t, err)

	list, err := f.svc.ListByPatient(ctx, patient)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.AppointmentStatusCompleted, list[0].Status)
	assert.Equal(t, "Take rest", list[0].DoctorInstructions)
}
