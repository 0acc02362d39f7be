package wizard

import (
	"slices"

	"github.com/drillrun/runwiz/internal/dependency"
	"github.com/drillrun/runwiz/internal/derive"
	rr "github.com/drillrun/runwiz/internal/runrecord"
)

// Catalog is the static description of a run entry session: its steps,
// the fields each step accepts, the selection chains, watched unique
// fields, required fields and derivation rules.
type Catalog struct {
	Steps    rr.Descriptor
	Fields   map[rr.StepID][]string
	Chains   []dependency.Spec
	Unique   []rr.FieldRef
	Required map[rr.StepID][]string
	Rules    derive.Rules
}

// DefaultCatalog returns the drilling run catalog. cutoff is the expected
// inclination, in degrees, at or below which a well is vertical.
func DefaultCatalog(cutoff float64) Catalog {
	return Catalog{
		Steps: rr.DefaultSteps(),
		Fields: map[rr.StepID][]string{
			rr.StepRun: {
				rr.FieldRunNumber, rr.FieldRunName, rr.FieldCustomer, rr.FieldWell,
				rr.FieldRig, rr.FieldService, rr.FieldHoleSection, rr.FieldRunInType,
				rr.FieldRunIn, rr.FieldMinimumID, rr.FieldStartDate,
			},
			rr.StepLocation: {
				rr.FieldLatDegrees, rr.FieldLatMinutes, rr.FieldLatSeconds, rr.FieldLatHemisphere,
				rr.FieldLonDegrees, rr.FieldLonMinutes, rr.FieldLonSeconds, rr.FieldLonHemisphere,
				rr.FieldLatitude, rr.FieldLongitude, rr.FieldGridConvention, rr.FieldElevation,
			},
			rr.StepDepth: {
				rr.FieldIntervalFrom, rr.FieldIntervalTo, rr.FieldIntervalLength, rr.FieldDepthUnit,
			},
			rr.StepSurvey: {
				rr.FieldExpectedInclination, rr.FieldWellProfile, rr.FieldSurveyType, rr.FieldMagneticDeclination,
			},
			rr.StepTieOn: {
				rr.FieldTieOnDepth, rr.FieldTieOnInclination, rr.FieldTieOnAzimuth,
				rr.FieldTieOnTVD, rr.FieldTieOnNorthing, rr.FieldTieOnEasting,
			},
		},
		Chains: []dependency.Spec{
			{
				Name: "hole_section",
				Step: rr.StepRun,
				Tiers: []dependency.Tier{
					{Field: rr.FieldHoleSection, Source: "hole_sections"},
					{Field: rr.FieldRunInType, Source: "run_in_types"},
					{Field: rr.FieldRunIn, Source: "run_ins"},
					{Field: rr.FieldMinimumID, Source: "minimum_ids"},
				},
			},
			{
				Name: "customer",
				Step: rr.StepRun,
				Tiers: []dependency.Tier{
					{Field: rr.FieldCustomer, Source: "customers"},
					{Field: rr.FieldWell, Source: "wells"},
				},
			},
			{Name: "rig", Step: rr.StepRun, Tiers: []dependency.Tier{{Field: rr.FieldRig, Source: "rigs"}}},
			{Name: "service", Step: rr.StepRun, Tiers: []dependency.Tier{{Field: rr.FieldService, Source: "services"}}},
		},
		Unique: []rr.FieldRef{rr.Ref(rr.StepRun, rr.FieldRunNumber)},
		Required: map[rr.StepID][]string{
			rr.StepRun:      {rr.FieldRunNumber, rr.FieldCustomer, rr.FieldWell, rr.FieldHoleSection, rr.FieldRunInType, rr.FieldRunIn},
			rr.StepLocation: {rr.FieldLatitude, rr.FieldLongitude},
			rr.StepDepth:    {rr.FieldIntervalFrom, rr.FieldIntervalTo, rr.FieldIntervalLength},
			rr.StepSurvey:   {rr.FieldWellProfile},
			rr.StepTieOn:    {rr.FieldTieOnDepth},
		},
		Rules: derive.Rules{
			Coordinates: []derive.Coordinate{
				{
					Step:       rr.StepLocation,
					Degrees:    rr.FieldLatDegrees,
					Minutes:    rr.FieldLatMinutes,
					Seconds:    rr.FieldLatSeconds,
					Hemisphere: rr.FieldLatHemisphere,
					Target:     rr.FieldLatitude,
				},
				{
					Step:       rr.StepLocation,
					Degrees:    rr.FieldLonDegrees,
					Minutes:    rr.FieldLonMinutes,
					Seconds:    rr.FieldLonSeconds,
					Hemisphere: rr.FieldLonHemisphere,
					Target:     rr.FieldLongitude,
				},
			},
			Intervals: []derive.Interval{{
				Step:   rr.StepDepth,
				From:   rr.FieldIntervalFrom,
				To:     rr.FieldIntervalTo,
				Target: rr.FieldIntervalLength,
			}},
			Classifiers: []derive.Classifier{{
				Step:   rr.StepSurvey,
				Driver: rr.FieldExpectedInclination,
				Target: rr.FieldWellProfile,
				Cutoff: cutoff,
				Below:  rr.ProfileVertical,
				Above:  rr.ProfileDeviated,
			}},
		},
	}
}

// Known reports whether step accepts field.
func (c Catalog) Known(step rr.StepID, field string) bool {
	return slices.Contains(c.Fields[step], field)
}

// ChainOf returns the chain spec that contains field in step.
func (c Catalog) ChainOf(step rr.StepID, field string) (dependency.Spec, bool) {
	for _, spec := range c.Chains {
		if spec.Step == step && slices.Contains(spec.Fields(), field) {
			return spec, true
		}
	}
	return dependency.Spec{}, false
}

// Sources returns the option source names of every chain root tier.
func (c Catalog) Sources() []string {
	out := make([]string, 0, len(c.Chains))
	for _, spec := range c.Chains {
		if len(spec.Tiers) > 0 {
			out = append(out, spec.Tiers[0].Source)
		}
	}
	return out
}
