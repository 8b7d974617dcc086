package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markRiceOld/trackerApi/internal/action"
	"github.com/markRiceOld/trackerApi/internal/auth"
	"github.com/markRiceOld/trackerApi/internal/interval"
	"github.com/markRiceOld/trackerApi/internal/model"
	"github.com/markRiceOld/trackerApi/internal/plan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testUser(t *testing.T, s *Store, email string) string {
	t.Helper()
	u, _, err := s.GetOrCreateUser(email, time.Now())
	require.NoError(t, err)
	return u.ID
}

func ptr[T any](v T) *T { return &v }

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.db")

	s, err := Open(path)
	require.NoError(t, err)

	userID := testUser(t, s, "reopen@example.com")
	_, err = s.Actions(userID).Create(model.Action{Title: "persisted"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	list, err := s2.Actions(userID).List(action.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "persisted", list[0].Title)
}

func TestActions_UserScoping(t *testing.T) {
	s := openTestStore(t)
	alice := testUser(t, s, "alice@example.com")
	bob := testUser(t, s, "bob@example.com")

	created, err := s.Actions(alice).Create(model.Action{Title: "alice only"})
	require.NoError(t, err)

	_, err = s.Actions(bob).Get(created.ID)
	require.ErrorIs(t, err, action.ErrNotFound)

	list, err := s.Actions(bob).List(action.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestActions_GatheredDuplicateRejected(t *testing.T) {
	s := openTestStore(t)
	userID := testUser(t, s, "gather@example.com")
	repo := s.Actions(userID)

	occurrence := model.Action{
		Title:      "Water plants",
		Gathered:   true,
		SourceKind: model.SourceInterval,
		SourceID:   "iv-1",
		ForDate:    ptr("2024-05-06"),
	}
	_, err := repo.Create(occurrence)
	require.NoError(t, err)

	// Same interval and date with a different start time still collides.
	dup := occurrence
	dup.StartTimeOfDay = ptr("10:30")
	_, err = repo.Create(dup)
	require.ErrorIs(t, err, action.ErrDuplicateGathered)

	// A different date is a fresh occurrence.
	next := occurrence
	next.ForDate = ptr("2024-05-07")
	_, err = repo.Create(next)
	require.NoError(t, err)
}

func TestActions_RoutineSlotsDistinctByTime(t *testing.T) {
	s := openTestStore(t)
	userID := testUser(t, s, "routine@example.com")
	repo := s.Actions(userID)

	base := model.Action{
		Title:          "Stretch",
		Gathered:       true,
		SourceKind:     model.SourceRoutine,
		SourceID:       "rt-1",
		ForDate:        ptr("2024-05-06"),
		StartTimeOfDay: ptr("07:00"),
	}
	_, err := repo.Create(base)
	require.NoError(t, err)

	evening := base
	evening.StartTimeOfDay = ptr("19:00")
	_, err = repo.Create(evening)
	require.NoError(t, err)

	same := base
	_, err = repo.Create(same)
	require.ErrorIs(t, err, action.ErrDuplicateGathered)

	found, ok, err := repo.FindGathered(model.SourceRoutine, "rt-1", "2024-05-06", ptr("19:00"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "19:00", *found.StartTimeOfDay)

	// Interval-style lookup without a time matches either slot.
	_, ok, err = repo.FindGathered(model.SourceRoutine, "rt-1", "2024-05-06", nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestActions_PatchClearsPointerFields(t *testing.T) {
	s := openTestStore(t)
	userID := testUser(t, s, "patch@example.com")
	repo := s.Actions(userID)

	created, err := repo.Create(model.Action{
		Title:            "Call bank",
		DueDate:          ptr("2024-06-01"),
		EstimatedMinutes: ptr(30),
		StartTimeOfDay:   ptr("14:00"),
	})
	require.NoError(t, err)

	updated, err := repo.Update(created.ID, action.Patch{
		DueDate:        ptr(""),
		StartTimeOfDay: ptr(""),
	})
	require.NoError(t, err)
	require.Nil(t, updated.DueDate)
	require.Nil(t, updated.StartTimeOfDay)

	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	require.Nil(t, got.DueDate)
}

func TestIntervals_RoundTripAndStatusFilter(t *testing.T) {
	s := openTestStore(t)
	userID := testUser(t, s, "intervals@example.com")
	repo := s.Intervals(userID)

	unit := model.RepeatDay
	active, err := repo.Create(model.Interval{
		Title:            "Daily review",
		EstimatedMinutes: 15,
		RepeatValue:      1,
		RepeatUnit:       &unit,
		Steps:            interval.NewSteps([]string{"open notes", "write summary"}, time.Now()),
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, active.Status)
	require.Len(t, active.Steps, 2)

	_, err = repo.Create(model.Interval{Title: "Paused", Status: model.StatusInactive})
	require.NoError(t, err)

	got, err := repo.Get(active.ID)
	require.NoError(t, err)
	require.Equal(t, active.Steps, got.Steps)
	require.Equal(t, model.RepeatDay, *got.RepeatUnit)

	onlyActive, err := repo.List(interval.ListFilter{Status: model.StatusActive})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	require.Equal(t, "Daily review", onlyActive[0].Title)

	inactive := string(model.StatusInactive)
	updated, err := repo.Update(active.ID, interval.Patch{Status: (*model.Status)(&inactive)})
	require.NoError(t, err)
	require.Equal(t, model.StatusInactive, updated.Status)

	onlyActive, err = repo.List(interval.ListFilter{Status: model.StatusActive})
	require.NoError(t, err)
	require.Empty(t, onlyActive)
}

func TestDayStates_UpsertProgression(t *testing.T) {
	s := openTestStore(t)
	userID := testUser(t, s, "days@example.com")
	repo := s.Days(userID)

	_, ok, err := repo.Get("2024-05-06")
	require.NoError(t, err)
	require.False(t, ok)

	at := time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC)
	ds, err := repo.CompleteGathering("2024-05-06", at)
	require.NoError(t, err)
	require.NotNil(t, ds.ActionGatheringCompletedAt)
	require.Nil(t, ds.PreDayCompletedAt)

	ds, err = repo.CompletePreDay("2024-05-06", at.Add(10*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, ds.ActionGatheringCompletedAt)
	require.NotNil(t, ds.PreDayCompletedAt)

	got, ok, err := repo.Get("2024-05-06")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2024-05-06", got.DateKey)
	require.NotNil(t, got.PreDayCompletedAt)
}

func TestMilestones_OrderingAcrossTransactions(t *testing.T) {
	s := openTestStore(t)
	userID := testUser(t, s, "plan@example.com")
	repo := s.Plans(userID)

	g, err := repo.CreateGoal(model.Goal{Title: "Learn sqlite"})
	require.NoError(t, err)

	first, err := repo.CreateMilestone(model.Milestone{GoalID: g.ID, Title: "schema", Order: 0})
	require.NoError(t, err)
	last, err := repo.CreateMilestone(model.Milestone{GoalID: g.ID, Title: "ship", Order: 1, IsLast: true})
	require.NoError(t, err)

	// Insert before the last marker shifts it up.
	mid, err := repo.CreateMilestone(model.Milestone{GoalID: g.ID, Title: "queries", Order: 1})
	require.NoError(t, err)
	require.Equal(t, 1, mid.Order)

	ms, err := repo.ListMilestones(g.ID)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	require.Equal(t, []string{"schema", "queries", "ship"}, []string{ms[0].Title, ms[1].Title, ms[2].Title})
	require.True(t, ms[2].IsLast)

	// Moving the last marker demotes the previous holder.
	moved, err := repo.UpdateMilestone(first.ID, plan.MilestonePatch{IsLast: ptr(true)})
	require.NoError(t, err)
	require.True(t, moved.IsLast)
	prev, err := repo.GetMilestone(last.ID)
	require.NoError(t, err)
	require.False(t, prev.IsLast)

	// Deleting renumbers contiguously.
	_, err = repo.DeleteMilestone(mid.ID)
	require.NoError(t, err)
	ms, err = repo.ListMilestones(g.ID)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	require.Equal(t, 0, ms[0].Order)
	require.Equal(t, 1, ms[1].Order)
}

func TestAuthRepo_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)

	u, created, err := s.GetOrCreateUser("auth@example.com", now)
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := s.GetOrCreateUser("auth@example.com", now.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, u.ID, again.ID)
	require.Equal(t, u.CreatedAt, again.CreatedAt)

	require.NoError(t, s.PutChallenge(auth.OTPChallenge{
		Email:       "auth@example.com",
		CodeHash:    "hash",
		ExpiresAt:   now.Add(10 * time.Minute),
		RequestedAt: now,
	}))
	ch, ok, err := s.GetChallenge("auth@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash", ch.CodeHash)

	// Re-requesting replaces the challenge.
	require.NoError(t, s.PutChallenge(auth.OTPChallenge{
		Email:       "auth@example.com",
		CodeHash:    "hash2",
		ExpiresAt:   now.Add(20 * time.Minute),
		RequestedAt: now.Add(time.Minute),
	}))
	ch, ok, err = s.GetChallenge("auth@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash2", ch.CodeHash)
	require.NoError(t, s.DeleteChallenge("auth@example.com"))
	_, ok, err = s.GetChallenge("auth@example.com")
	require.NoError(t, err)
	require.False(t, ok)

	sess := auth.Session{
		ID:        auth.NewID(),
		UserID:    u.ID,
		TokenHash: "token-hash",
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	require.NoError(t, s.CreateSession(sess))

	got, ok, err := s.GetSessionByTokenHash("token-hash")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sess.ID, got.ID)

	require.NoError(t, s.TouchSession(sess.ID, now.Add(time.Hour)))
	got, _, err = s.GetSessionByTokenHash("token-hash")
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), got.LastSeen)

	require.NoError(t, s.DeleteSessionByTokenHash("token-hash"))
	_, ok, err = s.GetSessionByTokenHash("token-hash")
	require.NoError(t, err)
	require.False(t, ok)
}
