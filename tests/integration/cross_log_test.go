package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puttPracticeAPI/internal/apperr"
	modelGame "puttPracticeAPI/internal/game"
	modelRoutine "puttPracticeAPI/internal/routine"
	modelUser "puttPracticeAPI/internal/user"
	"puttPracticeAPI/services"
	"puttPracticeAPI/tests/helpers"
)

func crossLogFixture(t *testing.T) (context.Context, *services.UserService, *services.RoutineService, *services.GameService, string, string) {
	t.Helper()

	pool := helpers.SetupTestDB(t)
	t.Cleanup(func() { helpers.CleanupTestDB(t, pool) })

	notificationService := services.NewNotificationService(pool)
	userService := services.NewUserService(pool, notificationService)
	achievementService := services.NewAchievementService(pool, notificationService)
	routineService := services.NewRoutineService(pool, achievementService, notificationService)
	gameService := services.NewGameService(pool, achievementService, notificationService)

	ctx := context.Background()
	stamp := time.Now().Format("20060102150405.000")
	actorID := "user_test_xlog_actor_" + stamp
	targetID := "user_test_xlog_target_" + stamp

	_, err := userService.CreateUser(ctx, &modelUser.CreateUserRequest{
		ClerkID: actorID, Email: "xlogactor@example.com", DisplayName: "Actor",
	})
	require.NoError(t, err)
	_, err = userService.CreateUser(ctx, &modelUser.CreateUserRequest{
		ClerkID: targetID, Email: "xlogtarget@example.com", DisplayName: "Target",
	})
	require.NoError(t, err)

	return ctx, userService, routineService, gameService, actorID, targetID
}

// TestCrossLogRoutineApprovalFlow exercises the pending path for routine
// completions: a friend logs a routine for the user, aggregates stay
// untouched until the user accepts, and only the owner can resolve it.
func TestCrossLogRoutineApprovalFlow(t *testing.T) {
	ctx, userService, routineService, _, actorID, targetID := crossLogFixture(t)

	logged, err := routineService.CrossLogCompletion(ctx, actorID, &modelRoutine.CrossLogRequest{
		TargetClerkID: targetID,
		RoutineID:     "circle_1_confidence",
		Duration:      15,
		Drills: []modelRoutine.Drill{
			{Distance: 10, Makes: 8, Attempts: 10},
		},
		RequireApproval: true,
	})
	require.NoError(t, err)
	assert.True(t, logged.Pending)
	require.NotNil(t, logged.LoggedByName)
	assert.Equal(t, "Actor", *logged.LoggedByName)

	target, err := userService.GetUserByClerkID(ctx, targetID)
	require.NoError(t, err)
	assert.Equal(t, 0, target.TotalRoutines, "pending completions never touch aggregates")
	assert.Equal(t, 0, target.TotalPoints)

	// Only the owner may resolve the pending record
	_, err = routineService.AcceptPendingCompletion(ctx, actorID, logged.ID)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	result, err := routineService.AcceptPendingCompletion(ctx, targetID, logged.ID)
	require.NoError(t, err)
	assert.False(t, result.Completion.Pending)

	target, err = userService.GetUserByClerkID(ctx, targetID)
	require.NoError(t, err)
	assert.Equal(t, 1, target.TotalRoutines)
	assert.Equal(t, 10, target.TotalPutts)
	assert.Equal(t, 8, target.TotalMakes)
	assert.Equal(t, 64, target.TotalPoints, "8/10 from 10 ft scores 64")

	// Accepting twice is a conflict, not a double count
	_, err = routineService.AcceptPendingCompletion(ctx, targetID, logged.ID)
	assert.ErrorIs(t, err, apperr.ErrState)
}

// TestCrossLogGameFlow covers both cross-log modes for games: immediate
// logging applies aggregates at once, a pending entry rejected by the
// owner disappears without ever counting.
func TestCrossLogGameFlow(t *testing.T) {
	ctx, userService, _, gameService, actorID, targetID := crossLogFixture(t)

	// Immediate mode
	logged, err := gameService.CrossLogCompletion(ctx, actorID, &modelGame.CrossLogRequest{
		TargetClerkID: targetID,
		GameID:        "points_blitz",
		Result:        modelGame.Result{Score: 62},
		Duration:      20,
	})
	require.NoError(t, err)
	assert.False(t, logged.Pending)
	assert.Equal(t, 62, logged.Points)
	assert.True(t, logged.GoalAchieved)

	target, err := userService.GetUserByClerkID(ctx, targetID)
	require.NoError(t, err)
	assert.Equal(t, 1, target.TotalGames)
	assert.Equal(t, 62, target.TotalPoints)

	// Pending entry rejected by the owner
	pending, err := gameService.CrossLogCompletion(ctx, actorID, &modelGame.CrossLogRequest{
		TargetClerkID:   targetID,
		GameID:          "streak_master",
		Result:          modelGame.Result{Score: 7},
		Duration:        10,
		RequireApproval: true,
	})
	require.NoError(t, err)
	assert.True(t, pending.Pending)

	err = gameService.RejectPendingCompletion(ctx, actorID, pending.ID)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	err = gameService.RejectPendingCompletion(ctx, targetID, pending.ID)
	require.NoError(t, err)

	target, err = userService.GetUserByClerkID(ctx, targetID)
	require.NoError(t, err)
	assert.Equal(t, 1, target.TotalGames, "rejected completions never count")
	assert.Equal(t, 62, target.TotalPoints)

	completions, err := gameService.GetCompletions(ctx, targetID)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	assert.Equal(t, "points_blitz", completions[0].GameID)
	require.NotNil(t, completions[0].LoggedByName)
	assert.Equal(t, "Actor", *completions[0].LoggedByName)
}
