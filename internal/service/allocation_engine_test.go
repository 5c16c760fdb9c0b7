package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-room-api/internal/models"
)

var engineBase = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testRoom(id, code, building string, floor, capacity int, roomType models.RoomType) models.Classroom {
	return models.Classroom{
		ID:       id,
		Code:     code,
		Name:     "Room " + code,
		Building: building,
		Floor:    floor,
		Capacity: capacity,
		Type:     roomType,
		Status:   models.RoomStatusActive,
	}
}

func testRequest(capacity int, roomType models.RoomType) models.RoomRequest {
	return models.RoomRequest{
		ID:               "req-1",
		RequesterType:    models.RequesterAdmin,
		Purpose:          "Algorithms lecture",
		StartAt:          engineBase,
		EndAt:            engineBase.Add(2 * time.Hour),
		CapacityRequired: capacity,
		RoomType:         roomType,
		Status:           models.RequestStatusPending,
	}
}

func activeAllocation(roomID string, start, end time.Time) models.RoomAllocation {
	return models.RoomAllocation{
		ID:          "al-" + roomID,
		RequestID:   "other",
		ClassroomID: roomID,
		StartAt:     start,
		EndAt:       end,
		AllocatedBy: models.AllocatedByAgent,
		Status:      models.AllocationStatusActive,
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	a := engineBase
	b := engineBase.Add(time.Hour)
	c := engineBase.Add(2 * time.Hour)

	assert.True(t, overlaps(a, c, b, c))
	assert.True(t, overlaps(a, b, a, c))
	// Touching intervals share no time.
	assert.False(t, overlaps(a, b, b, c))
	assert.False(t, overlaps(b, c, a, b))
	assert.False(t, overlaps(a, b, c, c.Add(time.Hour)))
}

func TestEligibilityOrderReportsFirstFailure(t *testing.T) {
	req := testRequest(100, models.RoomTypeLab)
	req.NeedsProjector = true
	req.NeedsAC = true

	// Fails every check; status must win.
	room := testRoom("r1", "A-101", "A", 1, 30, models.RoomTypeLecture)
	room.Status = models.RoomStatusMaintenance
	ok, reason := isRoomEligible(room, req)
	require.False(t, ok)
	assert.Equal(t, "Room is not ACTIVE", reason)

	room.Status = models.RoomStatusActive
	_, reason = isRoomEligible(room, req)
	assert.Equal(t, "Insufficient capacity", reason)

	room.Capacity = 120
	_, reason = isRoomEligible(room, req)
	assert.Equal(t, "Room type mismatch", reason)

	room.Type = models.RoomTypeLab
	_, reason = isRoomEligible(room, req)
	assert.Equal(t, "Projector required", reason)

	room.HasProjector = true
	_, reason = isRoomEligible(room, req)
	assert.Equal(t, "AC required", reason)

	room.HasAC = true
	ok, reason = isRoomEligible(room, req)
	assert.True(t, ok)
	assert.Equal(t, "Eligible", reason)
}

func TestEligibilityAnyTypeMatchesEverything(t *testing.T) {
	req := testRequest(20, models.RoomTypeAny)
	for _, rt := range []models.RoomType{models.RoomTypeLecture, models.RoomTypeLab, models.RoomTypeSeminar, models.RoomTypeAuditorium} {
		room := testRoom("r1", "A-101", "A", 1, 50, rt)
		ok, _ := isRoomEligible(room, req)
		assert.True(t, ok, string(rt))
	}
}

func TestScoreBuildingPreference(t *testing.T) {
	req := testRequest(50, models.RoomTypeAny)
	room := testRoom("r1", "A-101", "Alpha", 0, 50, models.RoomTypeLecture)

	req.PreferredBuilding = ""
	neutral := computeRoomScore(room, req)

	req.PreferredBuilding = "  alpha  " // case and whitespace insensitive
	assert.Equal(t, neutral+30, computeRoomScore(room, req))

	req.PreferredBuilding = "Beta"
	assert.Equal(t, neutral-6, computeRoomScore(room, req))
}

func TestScoreComponents(t *testing.T) {
	req := testRequest(60, models.RoomTypeAny)
	req.NeedsAC = true
	req.PreferredBuilding = "Alpha"

	room := testRoom("r1", "A-101", "Alpha", 2, 100, models.RoomTypeLecture)
	room.HasAC = true
	room.HasProjector = true

	// building +30, efficiency 25-(40/10)=21, comfort 6 (AC requested) + 2
	// (incidental projector), floor 6-2=4.
	assert.Equal(t, 30+21+6+2+4, computeRoomScore(room, req))
}

func TestScoreFloorClamp(t *testing.T) {
	req := testRequest(10, models.RoomTypeAny)
	ground := testRoom("r1", "A-001", "A", 0, 10, models.RoomTypeLecture)
	high := testRoom("r2", "A-901", "A", 9, 10, models.RoomTypeLecture)
	assert.Equal(t, 6, computeRoomScore(ground, req)-computeRoomScore(high, req))
}

func TestScoreWasteMonotonic(t *testing.T) {
	req := testRequest(40, models.RoomTypeAny)
	prev := testRoom("r0", "A-0", "A", 0, 40, models.RoomTypeLecture)
	for _, capacity := range []int{50, 80, 140, 300, 1000} {
		next := testRoom("r1", "A-1", "A", 0, capacity, models.RoomTypeLecture)
		assert.LessOrEqual(t, computeRoomScore(next, req), computeRoomScore(prev, req))
		prev = next
	}
}

func TestPickBestRoomPrefersTightFitInPreferredBuilding(t *testing.T) {
	req := testRequest(60, models.RoomTypeAny)
	req.PreferredBuilding = "Science"

	rooms := []models.Classroom{
		testRoom("r1", "SCI-201", "Science", 2, 70, models.RoomTypeLecture),
		testRoom("r2", "MAIN-101", "Main", 1, 70, models.RoomTypeLecture),
		testRoom("r3", "SCI-501", "Science", 5, 400, models.RoomTypeAuditorium),
	}

	result := pickBestRoom(req, rooms, nil)
	require.NotNil(t, result.Room)
	assert.Equal(t, "SCI-201", result.Room.Code)
	assert.Contains(t, result.Reason, "Allocated to best-fit room based on weighted score.")
	assert.Contains(t, result.Reason, "score=")
	assert.Contains(t, result.Reason, "preferred_building=yes")
	assert.Contains(t, result.Reason, "waste=10")
	assert.LessOrEqual(t, len(result.Candidates), 5)
}

func TestPickBestRoomSkipsOccupiedRooms(t *testing.T) {
	req := testRequest(30, models.RoomTypeAny)
	rooms := []models.Classroom{
		testRoom("r1", "A-101", "A", 1, 40, models.RoomTypeLecture),
		testRoom("r2", "A-102", "A", 1, 40, models.RoomTypeLecture),
	}
	allocations := []models.RoomAllocation{
		activeAllocation("r1", engineBase.Add(time.Hour), engineBase.Add(3*time.Hour)),
	}

	result := pickBestRoom(req, rooms, allocations)
	require.NotNil(t, result.Room)
	assert.Equal(t, "r2", result.Room.ID)

	// A REPLACED allocation in the same window does not block.
	allocations[0].ClassroomID = "r2"
	allocations[0].Status = models.AllocationStatusReplaced
	result = pickBestRoom(req, rooms, allocations)
	require.NotNil(t, result.Room)
	assert.Equal(t, "r1", result.Room.ID)
}

func TestPickBestRoomTieBreaksByCode(t *testing.T) {
	req := testRequest(50, models.RoomTypeAny)
	rooms := []models.Classroom{
		testRoom("r9", "B-200", "A", 1, 50, models.RoomTypeLecture),
		testRoom("r2", "A-200", "A", 1, 50, models.RoomTypeLecture),
		testRoom("r5", "C-200", "A", 1, 50, models.RoomTypeLecture),
	}

	for i := 0; i < 10; i++ {
		result := pickBestRoom(req, rooms, nil)
		require.NotNil(t, result.Room)
		assert.Equal(t, "A-200", result.Room.Code)
	}
}

func TestDiagnoseFailureNoActiveRooms(t *testing.T) {
	req := testRequest(10, models.RoomTypeAny)
	room := testRoom("r1", "A-101", "A", 1, 50, models.RoomTypeLecture)
	room.Status = models.RoomStatusInactive

	reason := diagnoseFailure(req, []models.Classroom{room}, nil)
	assert.Equal(t, "No ACTIVE rooms available in the system.", reason)
}

func TestDiagnoseFailureDominantBlocker(t *testing.T) {
	req := testRequest(500, models.RoomTypeAny)
	rooms := []models.Classroom{
		testRoom("r1", "A-101", "A", 1, 50, models.RoomTypeLecture),
		testRoom("r2", "A-102", "A", 1, 80, models.RoomTypeLab),
		testRoom("r3", "A-103", "A", 1, 120, models.RoomTypeSeminar),
	}

	reason := diagnoseFailure(req, rooms, nil)
	assert.Equal(t, "Capacity too high for available rooms. (ACTIVE rooms analyzed: 3)", reason)

	req = testRequest(10, models.RoomTypeAuditorium)
	reason = diagnoseFailure(req, rooms, nil)
	assert.Equal(t, "Room type constraint too strict. (ACTIVE rooms analyzed: 3)", reason)

	req = testRequest(10, models.RoomTypeAny)
	req.NeedsProjector = true
	reason = diagnoseFailure(req, rooms, nil)
	assert.Equal(t, "Projector requirement blocks most rooms. (ACTIVE rooms analyzed: 3)", reason)
}

func TestDiagnoseFailureTimeConflict(t *testing.T) {
	req := testRequest(30, models.RoomTypeAny)
	rooms := []models.Classroom{testRoom("r1", "A-101", "A", 1, 40, models.RoomTypeLecture)}
	allocations := []models.RoomAllocation{
		activeAllocation("r1", engineBase, engineBase.Add(2*time.Hour)),
	}

	reason := diagnoseFailure(req, rooms, allocations)
	assert.Equal(t, "All eligible rooms are occupied during the requested time window (time conflict).", reason)
}

func TestDiagnoseFailureCombinedConstraints(t *testing.T) {
	// An eligible free room exists, so pickBestRoom would not normally fail;
	// the diagnoser still answers with the combined fallback.
	req := testRequest(30, models.RoomTypeAny)
	rooms := []models.Classroom{testRoom("r1", "A-101", "A", 1, 40, models.RoomTypeLecture)}

	reason := diagnoseFailure(req, rooms, nil)
	assert.Equal(t, "Allocation failed due to combined constraints (time + preferences).", reason)
}

func TestGenerateSuggestionsTimeShifts(t *testing.T) {
	req := testRequest(30, models.RoomTypeAny)
	payload := generateSuggestions(req, nil, nil)

	var shifts []models.Suggestion
	for _, s := range payload.Base {
		if s.Type == models.SuggestionTimeShift {
			shifts = append(shifts, s)
		}
	}
	require.Len(t, shifts, 3)
	for i, s := range shifts {
		hours := time.Duration(i+1) * time.Hour
		require.NotNil(t, s.StartAt)
		require.NotNil(t, s.EndAt)
		assert.Equal(t, req.StartAt.Add(hours), *s.StartAt)
		assert.Equal(t, req.EndAt.Add(hours), *s.EndAt)
		assert.Equal(t, "No suitable room at requested slot.", s.Reason)
	}
	assert.Equal(t, "Try +1 hour(s)", shifts[0].Label)
	assert.Equal(t, "Try +3 hour(s)", shifts[2].Label)
}

func TestGenerateSuggestionsAltBuildings(t *testing.T) {
	req := testRequest(30, models.RoomTypeAny)
	rooms := []models.Classroom{
		testRoom("r1", "A-101", "Alpha", 1, 40, models.RoomTypeLecture),
		testRoom("r2", "B-101", "Beta", 1, 40, models.RoomTypeLecture),
		testRoom("r3", "B-102", "Beta", 1, 40, models.RoomTypeLecture),
		testRoom("r4", "C-101", "Gamma", 1, 40, models.RoomTypeLecture),
		testRoom("r5", "D-101", "Delta", 1, 10, models.RoomTypeLecture), // too small
	}

	payload := generateSuggestions(req, rooms, nil)
	var alts []models.Suggestion
	for _, s := range payload.Base {
		if s.Type == models.SuggestionAltBuilding {
			alts = append(alts, s)
		}
	}
	require.Len(t, alts, 3)
	// Beta has the most eligible rooms; Alpha and Gamma tie and order by name.
	assert.Equal(t, "Beta", alts[0].PreferredBuilding)
	assert.Equal(t, "Alpha", alts[1].PreferredBuilding)
	assert.Equal(t, "Gamma", alts[2].PreferredBuilding)
	assert.Equal(t, `Try building "Beta"`, alts[0].Label)
	assert.Equal(t, "More eligible rooms exist in that building.", alts[0].Reason)
}

func TestGenerateSuggestionsSplitThreshold(t *testing.T) {
	req := testRequest(199, models.RoomTypeAny)
	payload := generateSuggestions(req, nil, nil)
	for _, s := range payload.Base {
		assert.NotEqual(t, models.SuggestionSplit, s.Type)
	}

	req.CapacityRequired = 200
	payload = generateSuggestions(req, nil, nil)
	found := false
	for _, s := range payload.Base {
		if s.Type == models.SuggestionSplit {
			found = true
			assert.Equal(t, "Split into multiple rooms", s.Label)
			assert.Equal(t, "Create 2-3 requests with smaller strengths (e.g., 80-120 each).", s.Advice)
			assert.Equal(t, "Single-room capacity constraint likely causes failure.", s.Reason)
		}
	}
	assert.True(t, found)
}

func TestGenerateSuggestionsNarrative(t *testing.T) {
	req := testRequest(60, models.RoomTypeLab)
	req.NeedsProjector = true
	req.PreferredBuilding = "Science"

	rooms := []models.Classroom{
		testRoom("r1", "SCI-201", "Science", 2, 70, models.RoomTypeLab),
	}
	inactive := testRoom("r2", "OLD-1", "Annex", 1, 30, models.RoomTypeLecture)
	inactive.Status = models.RoomStatusInactive
	rooms = append(rooms, inactive)

	allocations := []models.RoomAllocation{
		activeAllocation("r1", engineBase, engineBase.Add(time.Hour)),
		activeAllocation("r1", engineBase.Add(6*time.Hour), engineBase.Add(7*time.Hour)), // outside window
	}

	payload := generateSuggestions(req, rooms, allocations)
	n := payload.Narrative
	assert.Equal(t, "Allocation failed because no ACTIVE room matched capacity/equipment/type AND was free at the requested time.", n.ConflictSummary)
	require.Len(t, n.RecommendedActions, 4)
	assert.Equal(t, "Adjust time window by 1-2 hours (most successful)", n.RecommendedActions[0])
	assert.InDelta(t, 0.78, n.Confidence, 1e-9)

	assert.Equal(t, 60, n.Signals.DemandCapacity)
	assert.Equal(t, models.RoomTypeLab, n.Signals.DemandType)
	assert.True(t, n.Signals.DemandProjector)
	assert.False(t, n.Signals.DemandAC)
	require.NotNil(t, n.Signals.PreferredBuilding)
	assert.Equal(t, "Science", *n.Signals.PreferredBuilding)
	assert.Equal(t, 1, n.Signals.ActiveRooms)
	assert.Equal(t, 2, n.Signals.TotalRooms)
	assert.Equal(t, 1, n.Signals.AllocationsInWindow)
}

func TestExplainScoreSignals(t *testing.T) {
	req := testRequest(60, models.RoomTypeAny)
	room := testRoom("r1", "A-301", "Alpha", 3, 90, models.RoomTypeLecture)
	room.HasProjector = true

	explain := explainScore(room, req, computeRoomScore(room, req))
	parts := strings.Split(explain, " | ")
	require.Len(t, parts, 6)
	assert.Equal(t, "no_building_pref", parts[1])
	assert.Equal(t, "waste=30", parts[2])
	assert.Equal(t, "floor=3", parts[3])
	assert.Equal(t, "projector=yes", parts[4])
	assert.Equal(t, "ac=no", parts[5])
}
