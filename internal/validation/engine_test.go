package validation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"caseflow/internal/intake"
	"caseflow/internal/refdata"
	refmemory "caseflow/internal/refdata/store/memory"
)

// EngineSuite runs the rule engine against a real in-memory reference-data
// store, no mocks.
type EngineSuite struct {
	suite.Suite
	engine *Engine
	now    time.Time
}

func (s *EngineSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	engine, err := NewEngine(refmemory.Seeded(), WithLogger(logger))
	s.Require().NoError(err)
	s.engine = engine
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) validIntake() intake.CaseIntake {
	dob := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)
	committed := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return intake.CaseIntake{
		Channel:          intake.ChannelPoliceFeed,
		URN:              "01AB0123456/26",
		InitiationCode:   "C",
		ProsecutorOUCode: "01AB",
		CaseType:         "C",
		ReceivedAt:       s.now,
		Defendants: []intake.DefendantIntake{{
			Reference:     "DEF-001",
			FirstName:     "Ada",
			LastName:      "Byron",
			DateOfBirth:   &dob,
			CustodyStatus: "BAIL",
			Offences: []intake.OffenceIntake{{
				Code:          "TH68001",
				CommittedDate: &committed,
				ModeOfTrial:   "SUMMARY",
			}},
		}},
	}
}

func (s *EngineSuite) TestCleanIntakeHasNoProblems() {
	result := s.engine.Validate(context.Background(), s.validIntake(), s.now)
	s.False(result.HasProblems(), "expected no problems, got %v", result.Flatten())
}

func (s *EngineSuite) TestAllViolationsReportedInOnePass() {
	ci := s.validIntake()
	ci.URN = "BROKEN"
	ci.ProsecutorOUCode = "99ZZ"
	ci.Defendants[0].Offences[0].Code = "XX00000"
	ci.Defendants[0].Offences[0].CommittedDate = nil

	result := s.engine.Validate(context.Background(), ci, s.now)

	codes := map[Code]bool{}
	for _, p := range result.Flatten() {
		codes[p.Code] = true
	}
	s.True(codes[CodeURNInvalidFormat])
	s.True(codes[CodeOUCodeNotRecognised])
	s.True(codes[CodeOffenceCodeNotRecognised])
	s.True(codes[CodeCommittedDateMissing])
	s.Len(result.Flatten(), 4, "engine must not stop at the first violation")
}

func (s *EngineSuite) TestDeterministicOutputOrdering() {
	ci := s.validIntake()
	ci.URN = ""
	ci.InitiationCode = "Z"
	ci.Markers = []intake.CaseMarker{{Type: "UNKNOWN_MARKER"}}
	ci.Defendants[0].FirstName = ""
	ci.Defendants[0].Offences[0].Code = ""

	first := s.engine.Validate(context.Background(), ci, s.now)
	second := s.engine.Validate(context.Background(), ci, s.now)
	s.Equal(first, second, "identical inputs must yield identical results")

	// Group order: case identity, markers, then defendants, then offences.
	flat := first.Flatten()
	s.Equal(CodeURNMissing, flat[0].Code)
	s.Equal(CodeInitiationCodeNotRecognised, flat[1].Code)
	s.Equal(CodeMarkerTypeNotRecognised, flat[2].Code)
	s.Equal(CodeDefendantNameMissing, flat[3].Code)
	s.Equal(CodeOffenceCodeMissing, flat[4].Code)
}

func (s *EngineSuite) TestFieldPathsAreStable() {
	ci := s.validIntake()
	ci.Defendants = append(ci.Defendants, intake.DefendantIntake{
		Reference: "DEF-002",
		FirstName: "Charles",
		LastName:  "Babbage",
		Offences:  []intake.OffenceIntake{{Code: ""}},
	})

	result := s.engine.Validate(context.Background(), ci, s.now)
	require.Len(s.T(), result.Defendants, 2)

	var paths []string
	for _, p := range result.Defendants[1].Offences[0] {
		paths = append(paths, p.Path)
	}
	s.Contains(paths, "defendants[1].offences[0].code")
}

func (s *EngineSuite) TestDateRulesUseSuppliedNow() {
	ci := s.validIntake()
	future := s.now.Add(48 * time.Hour)
	ci.Defendants[0].DateOfBirth = &future

	result := s.engine.Validate(context.Background(), ci, s.now)
	flat := result.Flatten()
	require.Len(s.T(), flat, 1)
	s.Equal(CodeDefendantDOBInFuture, flat[0].Code)

	// With a later now, the same intake passes: the clock is a parameter.
	later := s.engine.Validate(context.Background(), ci, future.Add(time.Hour))
	s.False(later.HasProblems())
}

// failingSource simulates a reference-data lookup timeout.
type failingSource struct{}

func (failingSource) Snapshot(context.Context) (*refdata.Snapshot, error) {
	return nil, errors.New("lookup timed out")
}

func TestValidate_LookupFailureDegradesToProblem(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	engine, err := NewEngine(failingSource{}, WithLogger(logger), WithLookupTimeout(50*time.Millisecond))
	require.NoError(t, err)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	committed := now.Add(-24 * time.Hour)
	ci := intake.CaseIntake{
		Channel:          intake.ChannelManual,
		URN:              "01AB0123456/26",
		InitiationCode:   "C",
		ProsecutorOUCode: "99ZZ", // would fail lookup rules if refdata were up
		Defendants: []intake.DefendantIntake{{
			Reference: "DEF-001",
			FirstName: "Ada", LastName: "Byron",
			DateOfBirth: &committed,
			Offences:    []intake.OffenceIntake{{Code: "TH68001", CommittedDate: &committed}},
		}},
	}

	result := engine.Validate(context.Background(), ci, now)

	flat := result.Flatten()
	require.Len(t, flat, 1, "lookup rules must be skipped, not failed")
	assert.Equal(t, CodeLookupUnavailable, flat[0].Code)
	assert.Equal(t, CategoryCase, flat[0].Category)
}

func TestNewProblem_UnknownCodePanics(t *testing.T) {
	assert.Panics(t, func() { newProblem(Code("NOT_IN_CATALOGUE"), "case") })
}

func TestCatalogue_AllCodesKnown(t *testing.T) {
	for _, code := range []Code{CodeURNMissing, CodeHearingDateInPast, CodeDefendantAlreadyInProgress} {
		assert.True(t, KnownCode(code))
		assert.NotEmpty(t, Describe(code))
	}
	assert.False(t, KnownCode(Code("BOGUS")))
}
