package forensics

// MetadataResult is the outcome of the EXIF forensics pass. A zero value is
// the neutral "no signal" result returned for images without usable metadata.
type MetadataResult struct {
	HasEditorMetadata    bool              `json:"has_editor_metadata"`
	SoftwareDetected     string            `json:"software_detected,omitempty"`
	ModificationDetected bool              `json:"modification_detected"`
	CreateDate           string            `json:"create_date,omitempty"`
	ModifyDate           string            `json:"modify_date,omitempty"`
	DeviceMake           string            `json:"device_make,omitempty"`
	DeviceModel          string            `json:"device_model,omitempty"`
	Tags                 map[string]string `json:"tags,omitempty"`
}

// Region marks one grid cell whose recompression error stands out
type Region struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	W     int `json:"w"`
	H     int `json:"h"`
	Score int `json:"score"` // 0-100
}

// Anomalies is the structured visual-anomaly report (replaces the old
// free-form anomaly map; bump Version when fields change)
type Anomalies struct {
	Version        int     `json:"version"`
	MeanError      float64 `json:"mean_error"`
	PeakError      float64 `json:"peak_error"`
	ErrorVariance  float64 `json:"error_variance"`
	OutlierRegions int     `json:"outlier_regions"`
}

// AnomaliesVersion is the current Anomalies schema version
const AnomaliesVersion = 1

// ManipulationResult is the outcome of the visual-consistency pass
type ManipulationResult struct {
	ConsistencyScore     int       `json:"consistency_score"` // 0-100, higher = more authentic
	ELAScore             int       `json:"ela_score"`         // 0-100, higher = more tampering evidence
	ManipulationDetected bool      `json:"manipulation_detected"`
	MatchedBankPattern   string    `json:"matched_bank_pattern,omitempty"`
	Anomalies            Anomalies `json:"anomalies"`
	SuspiciousRegions    []Region  `json:"suspicious_regions,omitempty"`
}
