package timetable

import "context"

// relaxedCapacityRatio is the share of required seats a room must offer in relaxed mode.
const relaxedCapacityRatio = 0.9

type checkMode int

const (
	hardMode checkMode = iota
	relaxedMode
)

func (m checkMode) String() string {
	if m == relaxedMode {
		return "relaxed"
	}
	return "hard"
}

// canPlace evaluates the constraints for mode in a fixed order and stops at
// the first failure. Relaxed mode only guards against double booking; its
// capacity tolerance is applied when the candidate rooms are selected.
func canPlace(ctx context.Context, index *conflictIndex, mode checkMode, section Section, room Classroom, day Day, slot TimeSlot) (bool, error) {
	if index.isInstructorBusy(section.InstructorID, day, slot) {
		return false, nil
	}
	if index.isClassroomBusy(room.ID, day, slot) {
		return false, nil
	}
	if mode == relaxedMode {
		return true, nil
	}
	conflict, err := index.hasStudentConflict(ctx, section, day, slot)
	if err != nil {
		return false, err
	}
	if conflict {
		return false, nil
	}
	return room.Capacity >= section.RequiredCapacity, nil
}

func fitsHard(room Classroom, section Section) bool {
	return room.Capacity >= section.RequiredCapacity
}

func fitsRelaxed(room Classroom, section Section) bool {
	return float64(room.Capacity) >= float64(section.RequiredCapacity)*relaxedCapacityRatio
}

func candidateRooms(rooms []Classroom, section Section, fits func(Classroom, Section) bool) []Classroom {
	var out []Classroom
	for _, room := range rooms {
		if fits(room, section) {
			out = append(out, room)
		}
	}
	return out
}
