package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/campus-room-api/internal/models"
)

// Eligibility reasons, reported in fixed evaluation order.
const (
	reasonRoomNotActive    = "Room is not ACTIVE"
	reasonInsufficientCap  = "Insufficient capacity"
	reasonTypeMismatch     = "Room type mismatch"
	reasonProjectorMissing = "Projector required"
	reasonACMissing        = "AC required"
	reasonEligible         = "Eligible"
)

// Failure diagnoses.
const (
	reasonNoActiveRooms = "No ACTIVE rooms available in the system."
	reasonTimeConflict  = "All eligible rooms are occupied during the requested time window (time conflict)."
	reasonCombined      = "Allocation failed due to combined constraints (time + preferences)."
)

const splitSuggestionThreshold = 200

// overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Intervals that merely touch do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func normalizeBuilding(b string) string {
	return strings.ToLower(strings.TrimSpace(b))
}

// isRoomEligible applies the structural, time-independent checks in fixed
// order: status, capacity, type, projector, AC. The first failing check is
// the one reported.
func isRoomEligible(room models.Classroom, req models.RoomRequest) (bool, string) {
	if room.Status != models.RoomStatusActive {
		return false, reasonRoomNotActive
	}
	if room.Capacity < req.CapacityRequired {
		return false, reasonInsufficientCap
	}
	if req.RoomType != models.RoomTypeAny && room.Type != req.RoomType {
		return false, reasonTypeMismatch
	}
	if req.NeedsProjector && !room.HasProjector {
		return false, reasonProjectorMissing
	}
	if req.NeedsAC && !room.HasAC {
		return false, reasonACMissing
	}
	return true, reasonEligible
}

// computeRoomScore sums independent, explainable signals. Higher is better.
// The weights are part of the engine contract: building preference +30/-6/0,
// efficiency 25-clamp(waste/10,0,25), comfort +6 requested / +2 incidental
// per equipment flag, floor 6-clamp(floor,0,6).
func computeRoomScore(room models.Classroom, req models.RoomRequest) int {
	pref := normalizeBuilding(req.PreferredBuilding)

	building := 0
	if pref != "" {
		if normalizeBuilding(room.Building) == pref {
			building = 30
		} else {
			building = -6
		}
	}

	waste := room.Capacity - req.CapacityRequired
	if waste < 0 {
		waste = 0
	}
	efficiency := 25 - clampInt(waste/10, 0, 25)

	comfort := 0
	if req.NeedsAC {
		comfort += 6
	} else if room.HasAC {
		comfort += 2
	}
	if req.NeedsProjector {
		comfort += 6
	} else if room.HasProjector {
		comfort += 2
	}

	floor := 6 - clampInt(room.Floor, 0, 6)

	return building + efficiency + comfort + floor
}

func hasTimeConflict(roomID string, req models.RoomRequest, allocations []models.RoomAllocation) bool {
	for _, al := range allocations {
		if al.Status != models.AllocationStatusActive || al.ClassroomID != roomID {
			continue
		}
		if overlaps(al.StartAt, al.EndAt, req.StartAt, req.EndAt) {
			return true
		}
	}
	return false
}

type roomCandidate struct {
	Room    models.Classroom
	Score   int
	Explain string
}

type pickResult struct {
	Room       *models.Classroom
	Reason     string
	Candidates []roomCandidate
}

// pickBestRoom chooses the best eligible, conflict-free room for a request.
// Ties break by room code then id so output is reproducible.
func pickBestRoom(req models.RoomRequest, rooms []models.Classroom, allocations []models.RoomAllocation) pickResult {
	var candidates []roomCandidate
	for _, room := range rooms {
		if ok, _ := isRoomEligible(room, req); !ok {
			continue
		}
		if hasTimeConflict(room.ID, req, allocations) {
			continue
		}
		score := computeRoomScore(room, req)
		candidates = append(candidates, roomCandidate{Room: room, Score: score, Explain: explainScore(room, req, score)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Room.Code != candidates[j].Room.Code {
			return candidates[i].Room.Code < candidates[j].Room.Code
		}
		return candidates[i].Room.ID < candidates[j].Room.ID
	})

	if len(candidates) == 0 {
		return pickResult{Reason: diagnoseFailure(req, rooms, allocations)}
	}

	top := candidates[0]
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	room := top.Room
	return pickResult{
		Room:       &room,
		Reason:     fmt.Sprintf("Allocated to best-fit room based on weighted score. (%s)", top.Explain),
		Candidates: candidates,
	}
}

func explainScore(room models.Classroom, req models.RoomRequest, score int) string {
	parts := []string{fmt.Sprintf("score=%d", score)}

	if normalizeBuilding(req.PreferredBuilding) != "" {
		if normalizeBuilding(room.Building) == normalizeBuilding(req.PreferredBuilding) {
			parts = append(parts, "preferred_building=yes")
		} else {
			parts = append(parts, "preferred_building=no")
		}
	} else {
		parts = append(parts, "no_building_pref")
	}

	waste := room.Capacity - req.CapacityRequired
	if waste < 0 {
		waste = 0
	}
	parts = append(parts, fmt.Sprintf("waste=%d", waste), fmt.Sprintf("floor=%d", room.Floor))

	if room.HasProjector {
		parts = append(parts, "projector=yes")
	} else {
		parts = append(parts, "projector=no")
	}
	if room.HasAC {
		parts = append(parts, "ac=yes")
	} else {
		parts = append(parts, "ac=no")
	}

	return strings.Join(parts, " | ")
}

// diagnoseFailure ranks which constraint is the dominant blocker once the
// picker came up empty. Blocker counts are taken over ACTIVE rooms only;
// ties resolve in the fixed order capacity, type, projector, AC.
func diagnoseFailure(req models.RoomRequest, rooms []models.Classroom, allocations []models.RoomAllocation) string {
	var active []models.Classroom
	for _, room := range rooms {
		if room.Status == models.RoomStatusActive {
			active = append(active, room)
		}
	}
	if len(active) == 0 {
		return reasonNoActiveRooms
	}

	var capBlock, typeBlock, projBlock, acBlock, baseEligible int
	for _, room := range active {
		if room.Capacity < req.CapacityRequired {
			capBlock++
		}
		if req.RoomType != models.RoomTypeAny && room.Type != req.RoomType {
			typeBlock++
		}
		if req.NeedsProjector && !room.HasProjector {
			projBlock++
		}
		if req.NeedsAC && !room.HasAC {
			acBlock++
		}
		if ok, _ := isRoomEligible(room, req); ok {
			baseEligible++
		}
	}

	if baseEligible == 0 {
		blockers := []struct {
			Label string
			Count int
		}{
			{"Capacity too high for available rooms", capBlock},
			{"Room type constraint too strict", typeBlock},
			{"Projector requirement blocks most rooms", projBlock},
			{"AC requirement blocks most rooms", acBlock},
		}
		sort.SliceStable(blockers, func(i, j int) bool {
			return blockers[i].Count > blockers[j].Count
		})
		return fmt.Sprintf("%s. (ACTIVE rooms analyzed: %d)", blockers[0].Label, len(active))
	}

	// Base eligibility is satisfiable, so the blocker is scheduling.
	for _, room := range active {
		if ok, _ := isRoomEligible(room, req); !ok {
			continue
		}
		if !hasTimeConflict(room.ID, req, allocations) {
			return reasonCombined
		}
	}
	return reasonTimeConflict
}

// generateSuggestions produces deterministic alternatives and a narrated
// summary for a failed request. Pure string templating; no external calls.
func generateSuggestions(req models.RoomRequest, rooms []models.Classroom, allocations []models.RoomAllocation) models.SuggestionPayload {
	base := make([]models.Suggestion, 0, 7)

	duration := req.EndAt.Sub(req.StartAt)
	for _, hrs := range []int{1, 2, 3} {
		start := req.StartAt.Add(time.Duration(hrs) * time.Hour)
		end := start.Add(duration)
		base = append(base, models.Suggestion{
			Type:    models.SuggestionTimeShift,
			Label:   fmt.Sprintf("Try +%d hour(s)", hrs),
			StartAt: &start,
			EndAt:   &end,
			Reason:  "No suitable room at requested slot.",
		})
	}

	eligibleByBuilding := make(map[string]int)
	for _, room := range rooms {
		if ok, _ := isRoomEligible(room, req); !ok {
			continue
		}
		eligibleByBuilding[room.Building]++
	}
	type buildingCount struct {
		Name  string
		Count int
	}
	ranked := make([]buildingCount, 0, len(eligibleByBuilding))
	for name, count := range eligibleByBuilding {
		ranked = append(ranked, buildingCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	for _, b := range ranked {
		base = append(base, models.Suggestion{
			Type:              models.SuggestionAltBuilding,
			Label:             fmt.Sprintf("Try building %q", b.Name),
			PreferredBuilding: b.Name,
			Reason:            "More eligible rooms exist in that building.",
		})
	}

	if req.CapacityRequired >= splitSuggestionThreshold {
		base = append(base, models.Suggestion{
			Type:   models.SuggestionSplit,
			Label:  "Split into multiple rooms",
			Advice: "Create 2-3 requests with smaller strengths (e.g., 80-120 each).",
			Reason: "Single-room capacity constraint likely causes failure.",
		})
	}

	activeRooms := 0
	for _, room := range rooms {
		if room.Status == models.RoomStatusActive {
			activeRooms++
		}
	}
	allocationsInWindow := 0
	for _, al := range allocations {
		if al.Status != models.AllocationStatusActive {
			continue
		}
		if overlaps(al.StartAt, al.EndAt, req.StartAt, req.EndAt) {
			allocationsInWindow++
		}
	}

	var preferred *string
	if strings.TrimSpace(req.PreferredBuilding) != "" {
		p := req.PreferredBuilding
		preferred = &p
	}

	narrative := models.NarrativeAdvice{
		ConflictSummary: "Allocation failed because no ACTIVE room matched capacity/equipment/type AND was free at the requested time.",
		RecommendedActions: []string{
			"Adjust time window by 1-2 hours (most successful)",
			"Relax equipment requirement if possible",
			"Try another building with more eligible rooms",
			"Split large class into multiple rooms if capacity is the blocker",
		},
		Confidence: 0.78,
		Signals: models.ConflictSignals{
			DemandCapacity:      req.CapacityRequired,
			DemandType:          req.RoomType,
			DemandProjector:     req.NeedsProjector,
			DemandAC:            req.NeedsAC,
			PreferredBuilding:   preferred,
			ActiveRooms:         activeRooms,
			TotalRooms:          len(rooms),
			AllocationsInWindow: allocationsInWindow,
		},
	}

	return models.SuggestionPayload{Base: base, Narrative: narrative}
}
