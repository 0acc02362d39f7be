package runrecord

// Run step fields.
const (
	FieldRunNumber   = "run_number"
	FieldRunName     = "run_name"
	FieldCustomer    = "customer"
	FieldWell        = "well"
	FieldRig         = "rig"
	FieldService     = "service"
	FieldHoleSection = "hole_section"
	FieldRunInType   = "run_in_type"
	FieldRunIn       = "run_in"
	FieldMinimumID   = "minimum_id"
	FieldStartDate   = "start_date"
)

// Location step fields. Latitude and Longitude are derived from the
// degree/minute/second inputs.
const (
	FieldLatDegrees     = "lat_degrees"
	FieldLatMinutes     = "lat_minutes"
	FieldLatSeconds     = "lat_seconds"
	FieldLatHemisphere  = "lat_hemisphere"
	FieldLonDegrees     = "lon_degrees"
	FieldLonMinutes     = "lon_minutes"
	FieldLonSeconds     = "lon_seconds"
	FieldLonHemisphere  = "lon_hemisphere"
	FieldLatitude       = "latitude"
	FieldLongitude      = "longitude"
	FieldGridConvention = "grid_convention"
	FieldElevation      = "elevation"
)

// Depth step fields.
const (
	FieldIntervalFrom   = "interval_from"
	FieldIntervalTo     = "interval_to"
	FieldIntervalLength = "interval_length"
	FieldDepthUnit      = "depth_unit"
)

// Survey step fields.
const (
	FieldExpectedInclination = "expected_inclination"
	FieldWellProfile         = "well_profile"
	FieldSurveyType          = "survey_type"
	FieldMagneticDeclination = "magnetic_declination"
)

// Tie-on step fields.
const (
	FieldTieOnDepth       = "tie_on_depth"
	FieldTieOnInclination = "tie_on_inclination"
	FieldTieOnAzimuth     = "tie_on_azimuth"
	FieldTieOnTVD         = "tie_on_tvd"
	FieldTieOnNorthing    = "tie_on_northing"
	FieldTieOnEasting     = "tie_on_easting"
)

// Well profile categories assigned from the expected inclination.
const (
	ProfileVertical = "vertical"
	ProfileDeviated = "deviated"
)
