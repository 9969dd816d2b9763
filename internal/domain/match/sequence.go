package match

// BallSequencer assigns delivery keys for one innings in document order.
type BallSequencer struct {
	innings int
	legal   map[int]int
	subs    map[[2]int]int
}

func NewBallSequencer(innings int) *BallSequencer {
	return &BallSequencer{
		innings: innings,
		legal:   make(map[int]int),
		subs:    make(map[[2]int]int),
	}
}

// Next returns the key of the next delivery bowled in over. Illegal deliveries
// share the ball number of the legal delivery that follows them.
func (s *BallSequencer) Next(over int, legal bool) DeliveryKey {
	ball := s.legal[over] + 1
	slot := [2]int{over, ball}
	key := DeliveryKey{Innings: s.innings, Over: over, Ball: ball, Sub: s.subs[slot]}
	s.subs[slot]++
	if legal {
		s.legal[over] = ball
	}
	return key
}
