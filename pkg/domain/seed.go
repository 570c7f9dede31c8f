package domain

import "math/rand/v2"

// SeedState は生成の一貫性を制御するシード値の状態です。
// ロックされるまでは生成のたびに振り直され、ロックは明示的に解除されるまで維持されます。
type SeedState struct {
	Value  int64 `json:"value"`
	Locked bool  `json:"locked"`
}

// Roll はロックされていなければ新しいシード値を採番します。
// ロック中は何もしません。
func (s *SeedState) Roll() {
	if s.Locked {
		return
	}
	s.Value = rand.Int64N(1 << 31)
}

// Lock は現在の値でシードを固定します。
func (s *SeedState) Lock() { s.Locked = true }

// Unlock はシードの固定を解除します。
func (s *SeedState) Unlock() { s.Locked = false }
