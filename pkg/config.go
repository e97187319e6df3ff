package geometry

type Configuration struct {
	Verbosity        int    `json:"verbosity"`
	RunNumber        int    `json:"run_number"`
	NoDB             bool   `json:"no_db"`
	Host             string `json:"host"`
	User             string `json:"user"`
	Passwd           string `json:"pass"`
	DBName           string `json:"dbname"`
	TileLayoutFile   string `json:"crs_geometry_file"`
	DetectorFile     string `json:"det_geometry_file"`
	LightLayoutFile  string `json:"lrs_geometry_file"`
	FileOut          string `json:"file_out"`
	Path             string `json:"path"`
	BeamDirection    string `json:"beam_direction"`
	DriftDirection   string `json:"drift_direction"`
	CompressionLevel int    `json:"compression_level"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
