package workout

// Advance tells the session player what to do after completing a set.
type Advance struct {
	// NextIndex is the exercise to move to immediately.
	NextIndex int
	// Rest reports whether a rest timer starts now. Mid-superset transitions
	// happen without rest.
	Rest bool
	// RestSeconds is the timer duration when Rest is true.
	RestSeconds int
	// ReturnIndex is the exercise navigation returns to when the rest timer
	// elapses or is skipped.
	ReturnIndex int
}

// NextAfterSet computes the traversal step after completing a set on the
// exercise at index current. The exercises slice must be sorted by position.
//
// Ungrouped exercises rest in place. Within a superset group, completing a
// set on any member but the last advances straight to the next member, and
// completing on the last member rests with the first member as the return
// point.
func NextAfterSet(exercises []Exercise, current int) Advance {
	if current < 0 || current >= len(exercises) {
		return Advance{NextIndex: current, Rest: false, RestSeconds: 0, ReturnIndex: current}
	}

	ex := exercises[current]
	if ex.SupersetGroup == nil {
		return Advance{
			NextIndex:   current,
			Rest:        true,
			RestSeconds: ex.RestSeconds,
			ReturnIndex: current,
		}
	}

	members := groupMembers(exercises, *ex.SupersetGroup)
	first := members[0]
	last := members[len(members)-1]

	if current == last {
		return Advance{
			NextIndex:   first,
			Rest:        true,
			RestSeconds: ex.RestSeconds,
			ReturnIndex: first,
		}
	}

	next := current
	for _, i := range members {
		if i > current {
			next = i
			break
		}
	}
	return Advance{NextIndex: next, Rest: false, RestSeconds: 0, ReturnIndex: next}
}

// groupMembers returns the indexes of every exercise in the given superset
// group, in position order.
func groupMembers(exercises []Exercise, group int) []int {
	var members []int
	for i, ex := range exercises {
		if ex.SupersetGroup != nil && *ex.SupersetGroup == group {
			members = append(members, i)
		}
	}
	return members
}
