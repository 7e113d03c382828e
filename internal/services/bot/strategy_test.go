package bot_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sketchguess/internal/dependencies/mocks"
	"github.com/mcoot/sketchguess/internal/services/bot"
)

type StrategySuite struct {
	suite.Suite
	mockRandom *mocks.MockRandom
	strategy   *bot.VarietyStrategy
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategySuite))
}

func (s *StrategySuite) SetupTest() {
	s.mockRandom = mocks.NewMockRandom()
	s.strategy = bot.NewVarietyStrategy(s.mockRandom)
}

func (s *StrategySuite) TestTopLabel() {
	s.Equal("cat", bot.TopLabel(map[string]float64{"cat": 0.9, "dog": 0.1}))
	s.Equal("dog", bot.TopLabel(map[string]float64{"cat": 0.2, "dog": 0.7, "bee": 0.1}))
	s.Equal("", bot.TopLabel(nil))
}

func (s *StrategySuite) TestTopLabelTieBreaksLexically() {
	s.Equal("ant", bot.TopLabel(map[string]float64{"zebra": 0.5, "ant": 0.5}))
}

func (s *StrategySuite) TestChooseNewTopLabelEmits() {
	thought, emit := s.strategy.Choose(map[string]float64{"cat": 0.9, "dog": 0.1}, "")
	s.True(emit)
	s.Equal("cat", thought)
}

func (s *StrategySuite) TestChooseRepeatSwitchesSilently() {
	s.mockRandom.QueueIntn(0)

	thought, emit := s.strategy.Choose(map[string]float64{"cat": 0.9, "dog": 0.1}, "cat")
	s.False(emit)
	s.Equal("dog", thought)
}

func (s *StrategySuite) TestChooseRepeatPicksAmongAlternatives() {
	s.mockRandom.QueueIntn(1)

	// Alternatives sorted: bee, dog
	thought, emit := s.strategy.Choose(map[string]float64{"cat": 0.8, "dog": 0.1, "bee": 0.1}, "cat")
	s.False(emit)
	s.Equal("dog", thought)
}

func (s *StrategySuite) TestChooseRepeatWithSingleLabelKeepsLastGuess() {
	thought, emit := s.strategy.Choose(map[string]float64{"cat": 1.0}, "cat")
	s.False(emit)
	s.Equal("cat", thought)
}

func (s *StrategySuite) TestChooseEmptyDistribution() {
	thought, emit := s.strategy.Choose(map[string]float64{}, "cat")
	s.False(emit)
	s.Equal("cat", thought)
}
