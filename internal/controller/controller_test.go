package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/status"
)

// scriptedGet lets a test hold a GetAppointment response until released,
// to exercise out-of-order completion deterministically.
type scriptedGet struct {
	started chan struct{}
	release chan struct{}
	appt    *model.Appointment
	err     error
}

func newScriptedGet(appt *model.Appointment, err error) *scriptedGet {
	return &scriptedGet{
		started: make(chan struct{}),
		release: make(chan struct{}),
		appt:    appt,
		err:     err,
	}
}

// scriptedUpdate holds an UpdateAppointmentStatus response until released,
// so tests can overlap in-flight mutations deterministically.
type scriptedUpdate struct {
	started chan struct{}
	release chan struct{}
	appt    *model.Appointment
	err     error
}

func newScriptedUpdate(appt *model.Appointment, err error) *scriptedUpdate {
	return &scriptedUpdate{
		started: make(chan struct{}),
		release: make(chan struct{}),
		appt:    appt,
		err:     err,
	}
}

// fakeApptSvc is an in-memory AppointmentService. Unscripted gets return
// server immediately; scripted gets block until the test releases them.
type fakeApptSvc struct {
	mu     sync.Mutex
	server *model.Appointment

	scripted    []*scriptedGet
	getIdx      int
	scriptedUpd []*scriptedUpdate
	updIdx      int

	getErr       error
	cancelErr    error
	rescheduleErr error
	noteErr      error
	updateErr    error

	getCalls        int
	cancelCalls     int
	rescheduleCalls int
	noteCalls       int
	updateCalls     int
}

func (f *fakeApptSvc) GetAppointment(ctx context.Context, id int) (*model.Appointment, error) {
	f.mu.Lock()
	f.getCalls++
	var call *scriptedGet
	if f.getIdx < len(f.scripted) {
		call = f.scripted[f.getIdx]
		f.getIdx++
	}
	getErr := f.getErr
	server := f.server
	f.mu.Unlock()

	if call != nil {
		close(call.started)
		<-call.release
		return call.appt, call.err
	}
	if getErr != nil {
		return nil, getErr
	}
	copied := *server
	return &copied, nil
}

func (f *fakeApptSvc) CancelAppointment(ctx context.Context, id int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.server.Status = model.Status{Code: model.StatusCancelled, Name: "Cancelled"}
	return nil
}

func (f *fakeApptSvc) RescheduleAppointment(ctx context.Context, id int, date, timeOfDay, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescheduleCalls++
	if f.rescheduleErr != nil {
		return f.rescheduleErr
	}
	f.server.ScheduledDate = date
	f.server.ScheduledTime = timeOfDay
	return nil
}

func (f *fakeApptSvc) AddAppointmentNote(ctx context.Context, id int, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteCalls++
	return f.noteErr
}

func (f *fakeApptSvc) UpdateAppointmentStatus(ctx context.Context, id int, statusCode string) (*model.Appointment, error) {
	f.mu.Lock()
	var call *scriptedUpdate
	if f.updIdx < len(f.scriptedUpd) {
		call = f.scriptedUpd[f.updIdx]
		f.updIdx++
		f.updateCalls++
	}
	f.mu.Unlock()

	if call != nil {
		close(call.started)
		<-call.release
		return call.appt, call.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.server.Status = model.Status{Code: statusCode, Name: statusCode}
	copied := *f.server
	return &copied, nil
}

func confirmedAppointment(id int) *model.Appointment {
	return &model.Appointment{
		ID:            id,
		Service:       model.Service{Name: "Pest Control - Residential", Price: "120.00"},
		Status:        model.Status{Code: model.StatusConfirmed, Name: "Confirmed"},
		ScheduledDate: "2024-01-10",
		ScheduledTime: "14:00",
	}
}

func loadedController(t *testing.T, svc *fakeApptSvc) *Appointment {
	t.Helper()
	c := NewAppointment(svc, svc.server.ID)
	_, err := c.Load(context.Background())
	require.NoError(t, err)
	return c
}

func TestLoad_ReplacesCache(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := NewAppointment(svc, 7)

	appt, err := c.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 7, appt.ID)
	assert.Equal(t, model.StatusConfirmed, appt.Status.Code)
	assert.Equal(t, StateIdle, c.State())
}

func TestLoad_FailureKeepsStaleCacheAndSurfacesError(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	svc.mu.Lock()
	svc.getErr = errors.New("connection refused")
	svc.mu.Unlock()

	appt, err := c.Load(context.Background())

	require.Error(t, err)
	require.NotNil(t, appt, "stale cache stays visible")
	assert.Equal(t, model.StatusConfirmed, appt.Status.Code)
}

// Two loads fire in order 1, 2; response 2 arrives first, response 1
// arrives later. The final cached state must equal response 2's payload.
func TestLoad_LastResponseReceivedWins(t *testing.T) {
	v1 := confirmedAppointment(7)
	v1.ScheduledDate = "2024-01-10"
	v2 := confirmedAppointment(7)
	v2.ScheduledDate = "2024-02-20"

	get1 := newScriptedGet(v1, nil)
	get2 := newScriptedGet(v2, nil)
	svc := &fakeApptSvc{server: confirmedAppointment(7), scripted: []*scriptedGet{get1, get2}}
	c := NewAppointment(svc, 7)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.Load(context.Background())
	}()
	<-get1.started

	go func() {
		defer wg.Done()
		_, _ = c.Load(context.Background())
	}()
	<-get2.started

	// Release the second request first, then the delayed first one.
	close(get2.release)
	require.Eventually(t, func() bool {
		cur := c.Current()
		return cur != nil && cur.ScheduledDate == "2024-02-20"
	}, time.Second, time.Millisecond)

	close(get1.release)
	wg.Wait()

	cur := c.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "2024-02-20", cur.ScheduledDate, "stale response 1 must be discarded")
	assert.Equal(t, StateIdle, c.State())
}

func TestCancel_BlankReasonFailsLocally(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	_, err := c.Cancel(context.Background(), "   ")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Field("reason"))
	assert.Zero(t, svc.cancelCalls, "no network call on validation failure")
}

func TestCancel_SuccessReloadsCanonicalShape(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	appt, err := c.Cancel(context.Background(), "Found another provider")

	require.NoError(t, err)
	assert.Equal(t, 1, svc.cancelCalls)
	assert.Equal(t, 2, svc.getCalls, "mutation triggers a full reload")
	assert.Equal(t, model.StatusCancelled, appt.Status.Code)
}

func TestCancel_TerminalAppointmentRejectedBeforeNetwork(t *testing.T) {
	for _, terminal := range []string{model.StatusCompleted, model.StatusCancelled} {
		svc := &fakeApptSvc{server: confirmedAppointment(7)}
		svc.server.Status = model.Status{Code: terminal, Name: terminal}
		c := loadedController(t, svc)

		_, err := c.Cancel(context.Background(), "too late")

		var transErr *status.InvalidTransitionError
		require.ErrorAs(t, err, &transErr, "terminal %s must reject cancel", terminal)
		assert.Zero(t, svc.cancelCalls)
	}
}

// Reschedule with a valid date and time but a blank reason fails with a
// field-scoped error on reason only, and no network call is issued.
func TestReschedule_BlankReasonOnly(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	_, err := c.Reschedule(context.Background(), "2024-01-10", "14:00", "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Field("reason"))
	assert.Empty(t, verr.Field("date"))
	assert.Empty(t, verr.Field("time"))
	assert.Zero(t, svc.rescheduleCalls)
}

func TestReschedule_AllViolationsReportedTogether(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	_, err := c.Reschedule(context.Background(), "", " ", "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3, "not fail-fast: every missing field reported")
	assert.NotEmpty(t, verr.Field("date"))
	assert.NotEmpty(t, verr.Field("time"))
	assert.NotEmpty(t, verr.Field("reason"))
}

func TestReschedule_SuccessReloads(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	appt, err := c.Reschedule(context.Background(), "2024-03-05", "09:30", "Weather")

	require.NoError(t, err)
	assert.Equal(t, 1, svc.rescheduleCalls)
	assert.Equal(t, "2024-03-05", appt.ScheduledDate)
	assert.Equal(t, "09:30", appt.ScheduledTime)
	assert.Equal(t, model.StatusConfirmed, appt.Status.Code, "reschedule keeps status")
}

func TestAddNote_RefreshesAfterSuccess(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	_, err := c.AddNote(context.Background(), "Gate code is 4411")

	require.NoError(t, err)
	assert.Equal(t, 1, svc.noteCalls)
	assert.Equal(t, 2, svc.getCalls, "note-add response alone does not update notes/history")
}

func TestAddNote_BlankContentFailsLocally(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	_, err := c.AddNote(context.Background(), "\t ")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Field("content"))
	assert.Zero(t, svc.noteCalls)
}

func TestAddNote_NetworkFailureLeavesCacheUnchanged(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)
	svc.noteErr = errors.New("gateway timeout")

	_, err := c.AddNote(context.Background(), "note")

	require.Error(t, err)
	cur := c.Current()
	assert.Equal(t, model.StatusConfirmed, cur.Status.Code)
	assert.Equal(t, StateIdle, c.State())
}

func TestUpdateStatus_IllegalTransitionNeverDispatched(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	svc.server.Status = model.Status{Code: model.StatusPending, Name: "Pending"}
	c := loadedController(t, svc)

	_, err := c.UpdateStatus(context.Background(), model.StatusCompleted)

	var transErr *status.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Zero(t, svc.updateCalls)
	assert.Equal(t, model.StatusPending, c.Current().Status.Code)
}

func TestUpdateStatus_OptimisticThenReconciled(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	appt, err := c.UpdateStatus(context.Background(), model.StatusInProgress)

	require.NoError(t, err)
	assert.Equal(t, 1, svc.updateCalls)
	assert.Equal(t, model.StatusInProgress, appt.Status.Code)
	assert.Equal(t, StateIdle, c.State())
}

// An optimistic patch is visible synchronously; when the server rejects
// the transition, the status reverts and the error is surfaced.
func TestUpdateStatus_RollbackOnServerRejection(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)
	svc.updateErr = errors.New("conflict: already cancelled by staff")

	appt, err := c.UpdateStatus(context.Background(), model.StatusInProgress)

	require.Error(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, model.StatusConfirmed, appt.Status.Code, "rolled back to last known-good")
	assert.Equal(t, StateIdle, c.State())

	cur := c.Current()
	assert.Equal(t, model.StatusConfirmed, cur.Status.Code)
}

// A second status update fired while the first is still in flight: the
// first succeeds and reconciles, the second is rejected. The rejection
// must leave the first's reconciled state in place, not restore its own
// pre-patch snapshot over it.
func TestUpdateStatus_OverlappingRejectionKeepsReconciledState(t *testing.T) {
	pending := confirmedAppointment(7)
	pending.Status = model.Status{Code: model.StatusPending, Name: "Pending"}

	upd1 := newScriptedUpdate(confirmedAppointment(7), nil)
	upd2 := newScriptedUpdate(nil, errors.New("technician not yet on site"))
	svc := &fakeApptSvc{server: pending, scriptedUpd: []*scriptedUpdate{upd1, upd2}}
	c := loadedController(t, svc)

	res1 := make(chan error, 1)
	go func() {
		_, err := c.UpdateStatus(context.Background(), model.StatusConfirmed)
		res1 <- err
	}()
	<-upd1.started

	// The optimistic patch from the first call already shows confirmed,
	// so starting the visit passes the local legality check.
	res2 := make(chan error, 1)
	go func() {
		_, err := c.UpdateStatus(context.Background(), model.StatusInProgress)
		res2 <- err
	}()
	<-upd2.started

	close(upd1.release)
	require.NoError(t, <-res1)

	close(upd2.release)
	require.Error(t, <-res2)

	cur := c.Current()
	require.NotNil(t, cur, "rejected overlapping update must not wipe the cache")
	assert.Equal(t, model.StatusConfirmed, cur.Status.Code)
	assert.Equal(t, StateIdle, c.State())
}

func TestClose_DiscardsOperations(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	c.Close()

	_, err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = c.Cancel(context.Background(), "reason")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCurrent_ReturnsACopy(t *testing.T) {
	svc := &fakeApptSvc{server: confirmedAppointment(7)}
	c := loadedController(t, svc)

	first := c.Current()
	first.Status.Code = "tampered"
	first.Service.Name = "tampered"

	second := c.Current()
	assert.Equal(t, model.StatusConfirmed, second.Status.Code)
	assert.Equal(t, "Pest Control - Residential", second.Service.Name)
}
