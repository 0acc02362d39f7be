package derive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drillrun/runwiz/internal/runrecord"
)

func testRules() Rules {
	return Rules{
		Coordinates: []Coordinate{{
			Step:       runrecord.StepLocation,
			Degrees:    runrecord.FieldLatDegrees,
			Minutes:    runrecord.FieldLatMinutes,
			Seconds:    runrecord.FieldLatSeconds,
			Hemisphere: runrecord.FieldLatHemisphere,
			Target:     runrecord.FieldLatitude,
		}},
		Intervals: []Interval{{
			Step:   runrecord.StepDepth,
			From:   runrecord.FieldIntervalFrom,
			To:     runrecord.FieldIntervalTo,
			Target: runrecord.FieldIntervalLength,
		}},
		Classifiers: []Classifier{{
			Step:   runrecord.StepSurvey,
			Driver: runrecord.FieldExpectedInclination,
			Target: runrecord.FieldWellProfile,
			Cutoff: 5,
			Below:  runrecord.ProfileVertical,
			Above:  runrecord.ProfileDeviated,
		}},
	}
}

func TestDecimalDegrees(t *testing.T) {
	tests := []struct {
		name          string
		deg, min, sec float64
		want          float64
	}{
		{"reference", 29, 45, 37.536, 29.76042667},
		{"whole degrees", 12, 0, 0, 12},
		{"half minute", 0, 30, 0, 0.5},
		{"negative degrees", -29, 45, 37.536, -29.76042667},
		{"negative zero degrees", math.Copysign(0, -1), 30, 0, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecimalDegrees(tt.deg, tt.min, tt.sec))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "A", Classify(5.0, 5, "A", "B"))
	assert.Equal(t, "B", Classify(5.01, 5, "A", "B"))
	assert.Equal(t, "A", Classify(0, 5, "A", "B"))
}

func TestApply_Coordinates(t *testing.T) {
	r := testRules()

	t.Run("degrees missing", func(t *testing.T) {
		out := r.Apply(runrecord.StepLocation, runrecord.Slot{Fields: runrecord.Fields{
			runrecord.FieldLatMinutes: 45.0,
		}})
		assert.False(t, out.Derived.Present(runrecord.FieldLatitude))
	})

	t.Run("minutes and seconds default to zero", func(t *testing.T) {
		out := r.Apply(runrecord.StepLocation, runrecord.Slot{Fields: runrecord.Fields{
			runrecord.FieldLatDegrees: "29",
		}})
		v, ok := out.Derived.Float(runrecord.FieldLatitude)
		require.True(t, ok)
		assert.Equal(t, 29.0, v)
	})

	t.Run("southern hemisphere", func(t *testing.T) {
		out := r.Apply(runrecord.StepLocation, runrecord.Slot{Fields: runrecord.Fields{
			runrecord.FieldLatDegrees:    29.0,
			runrecord.FieldLatMinutes:    45.0,
			runrecord.FieldLatSeconds:    37.536,
			runrecord.FieldLatHemisphere: "S",
		}})
		v, _ := out.Derived.Float(runrecord.FieldLatitude)
		assert.Equal(t, -29.76042667, v)
	})

	t.Run("negative degrees are not negated again", func(t *testing.T) {
		out := r.Apply(runrecord.StepLocation, runrecord.Slot{Fields: runrecord.Fields{
			runrecord.FieldLatDegrees:    "-29",
			runrecord.FieldLatMinutes:    "45",
			runrecord.FieldLatSeconds:    "37.536",
			runrecord.FieldLatHemisphere: "S",
		}})
		v, _ := out.Derived.Float(runrecord.FieldLatitude)
		assert.Equal(t, -29.76042667, v)
	})

	t.Run("clearing degrees removes the value", func(t *testing.T) {
		slot := r.Apply(runrecord.StepLocation, runrecord.Slot{Fields: runrecord.Fields{
			runrecord.FieldLatDegrees: 10.0,
		}})
		require.True(t, slot.Derived.Present(runrecord.FieldLatitude))

		delete(slot.Fields, runrecord.FieldLatDegrees)
		slot = r.Apply(runrecord.StepLocation, slot)
		assert.False(t, slot.Derived.Present(runrecord.FieldLatitude))
	})
}

func TestApply_Interval(t *testing.T) {
	r := testRules()

	slot := r.Apply(runrecord.StepDepth, runrecord.Slot{Fields: runrecord.Fields{
		runrecord.FieldIntervalFrom: 1000.0,
		runrecord.FieldIntervalTo:   5000.0,
	}})
	v, ok := slot.Derived.Float(runrecord.FieldIntervalLength)
	require.True(t, ok)
	assert.Equal(t, 4000.0, v)
	assert.Empty(t, r.Issues(runrecord.StepDepth, slot))

	only := r.Apply(runrecord.StepDepth, runrecord.Slot{Fields: runrecord.Fields{
		runrecord.FieldIntervalFrom: 1000.0,
	}})
	assert.False(t, only.Derived.Present(runrecord.FieldIntervalLength))

	for _, to := range []float64{1000, 900} {
		bad := runrecord.Slot{Fields: runrecord.Fields{
			runrecord.FieldIntervalFrom: 1000.0,
			runrecord.FieldIntervalTo:   to,
		}}
		issues := r.Issues(runrecord.StepDepth, r.Apply(runrecord.StepDepth, bad))
		require.Len(t, issues, 1, "to=%v", to)
		assert.Equal(t, runrecord.Ref(runrecord.StepDepth, runrecord.FieldIntervalTo), issues[0].Ref)
	}
}

func TestApply_Classification(t *testing.T) {
	r := testRules()
	step := runrecord.StepSurvey

	slot := r.Apply(step, runrecord.Slot{Fields: runrecord.Fields{
		runrecord.FieldExpectedInclination: 5.0,
	}})
	assert.Equal(t, runrecord.Classification{Source: runrecord.ClassDerived, Value: runrecord.ProfileVertical},
		slot.Classes[runrecord.FieldWellProfile])
	assert.False(t, r.Editable(step, slot, runrecord.FieldWellProfile))

	_, err := r.Override(step, slot, runrecord.FieldWellProfile, runrecord.ProfileDeviated)
	assert.ErrorIs(t, err, ErrReadOnly)

	slot.Fields[runrecord.FieldExpectedInclination] = 5.01
	slot = r.Apply(step, slot)
	assert.Equal(t, runrecord.ProfileDeviated, slot.Classes[runrecord.FieldWellProfile].Value)

	// Clearing the driver hands the last value to the user.
	delete(slot.Fields, runrecord.FieldExpectedInclination)
	slot = r.Apply(step, slot)
	assert.Equal(t, runrecord.Classification{Source: runrecord.ClassUser, Value: runrecord.ProfileDeviated},
		slot.Classes[runrecord.FieldWellProfile])
	assert.True(t, r.Editable(step, slot, runrecord.FieldWellProfile))

	slot, err = r.Override(step, slot, runrecord.FieldWellProfile, runrecord.ProfileVertical)
	require.NoError(t, err)
	slot = r.Apply(step, slot)
	assert.Equal(t, runrecord.Classification{Source: runrecord.ClassUser, Value: runrecord.ProfileVertical},
		slot.Classes[runrecord.FieldWellProfile], "user value survives re-derivation")
}

func TestEditable(t *testing.T) {
	r := testRules()
	empty := runrecord.Slot{Fields: runrecord.Fields{}}

	assert.False(t, r.Editable(runrecord.StepDepth, empty, runrecord.FieldIntervalLength))
	assert.False(t, r.Editable(runrecord.StepLocation, empty, runrecord.FieldLatitude))
	assert.True(t, r.Editable(runrecord.StepDepth, empty, runrecord.FieldIntervalFrom))
	assert.True(t, r.Editable(runrecord.StepSurvey, empty, runrecord.FieldWellProfile))
}

func TestOverride_NotClassification(t *testing.T) {
	r := testRules()
	_, err := r.Override(runrecord.StepRun, runrecord.Slot{}, runrecord.FieldRunName, "x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrReadOnly)
}

func TestIssues_NonNumericInputs(t *testing.T) {
	r := testRules()

	depth := r.Apply(runrecord.StepDepth, runrecord.Slot{Fields: runrecord.Fields{
		runrecord.FieldIntervalFrom: "abc",
		runrecord.FieldIntervalTo:   "5000",
	}})
	assert.False(t, depth.Derived.Present(runrecord.FieldIntervalLength))
	issues := r.Issues(runrecord.StepDepth, depth)
	require.Len(t, issues, 1)
	assert.Equal(t, runrecord.Ref(runrecord.StepDepth, runrecord.FieldIntervalFrom), issues[0].Ref)
	assert.Equal(t, "must be a number", issues[0].Message)

	loc := r.Apply(runrecord.StepLocation, runrecord.Slot{Fields: runrecord.Fields{
		runrecord.FieldLatDegrees: "29",
		runrecord.FieldLatMinutes: "forty",
	}})
	issues = r.Issues(runrecord.StepLocation, loc)
	require.Len(t, issues, 1)
	assert.Equal(t, runrecord.Ref(runrecord.StepLocation, runrecord.FieldLatMinutes), issues[0].Ref)

	// Absent inputs are a matter of required fields, not issues.
	assert.Empty(t, r.Issues(runrecord.StepDepth, runrecord.Slot{Fields: runrecord.Fields{}}))
}
