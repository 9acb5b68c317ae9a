package assets

import "github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"

// WindowSet is the set of identifiers that should currently be warm. It is
// replaced wholesale on each recompute and diffed against its predecessor.
type WindowSet map[media.AssetID]struct{}

// Window returns the identifiers in [position, position+size) clipped to the
// bounds of the ordered list.
func Window(position, size int, order []media.AssetID) WindowSet {
	window := make(WindowSet)
	if size <= 0 || position >= len(order) {
		return window
	}
	start := position
	if start < 0 {
		start = 0
	}
	end := position + size
	if end > len(order) {
		end = len(order)
	}
	for _, id := range order[start:end] {
		window[id] = struct{}{}
	}
	return window
}

// DiffWindow compares consecutive window sets: toStart is next minus
// previous, toStop is previous minus next.
func DiffWindow(previous, next WindowSet) (toStart, toStop []media.AssetID) {
	for id := range next {
		if _, ok := previous[id]; !ok {
			toStart = append(toStart, id)
		}
	}
	for id := range previous {
		if _, ok := next[id]; !ok {
			toStop = append(toStop, id)
		}
	}
	return toStart, toStop
}
