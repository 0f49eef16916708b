package model

// ColorStep is one photo type of the seasonal color analysis
type ColorStep string

const (
	ColorFrenteSolto ColorStep = "frente_solto"
	ColorFrentePreso ColorStep = "frente_preso"
	ColorPerfil      ColorStep = "perfil"
	ColorOlho        ColorStep = "olho"
	ColorPulso       ColorStep = "pulso"
)

// ColorSteps lists the steps in capture order
var ColorSteps = []ColorStep{ColorFrenteSolto, ColorFrentePreso, ColorPerfil, ColorOlho, ColorPulso}

var expectedRegions = map[ColorStep][]string{
	ColorFrenteSolto: {"eyebrows", "hair_root"},
	ColorFrentePreso: {"forehead", "mouth", "below_mouth", "chin"},
	ColorPerfil:      {"cheek"},
	ColorOlho:        {"under_eye_skin", "iris"},
	ColorPulso:       {"pulse"},
}

// ExpectedRegions returns the regions a completed result for step must carry
func (s ColorStep) ExpectedRegions() []string {
	return expectedRegions[s]
}

// Valid reports whether s is a known step
func (s ColorStep) Valid() bool {
	_, ok := expectedRegions[s]
	return ok
}

// ColorPalette is the extracted palette of one facial region
type ColorPalette struct {
	Average string `json:"average" bson:"average"`
	Dark    string `json:"dark" bson:"dark"`
	Light   string `json:"light" bson:"light"`
	Median  string `json:"median" bson:"median"`
	Result  string `json:"result" bson:"result"`
}

// UploadedImages are the intermediate images produced for a region
type UploadedImages struct {
	CroppedURL  string `json:"cropped_url" bson:"croppedUrl"`
	FilteredURL string `json:"filtered_url" bson:"filteredUrl"`
	PaletteURL  string `json:"palette_url" bson:"paletteUrl"`
}

// FeatureAnalysis is the analysis of one facial region
type FeatureAnalysis struct {
	ColorPalette   ColorPalette   `json:"color_palette" bson:"colorPalette"`
	Region         [][]float64    `json:"region" bson:"region"`
	UploadedImages UploadedImages `json:"uploaded_images" bson:"uploadedImages"`
}

// ColorAnalysis is the completed output of one color step
type ColorAnalysis struct {
	ImageURL string                     `json:"image_url" bson:"imageUrl"`
	Result   map[string]FeatureAnalysis `json:"result" bson:"result"`
}

// HasRegions reports whether every expected region for step is present
func (c *ColorAnalysis) HasRegions(step ColorStep) bool {
	regions := step.ExpectedRegions()
	if c == nil || len(regions) == 0 {
		return false
	}
	for _, r := range regions {
		if _, ok := c.Result[r]; !ok {
			return false
		}
	}
	return true
}

// ColorAnalysisRequest is the submit payload for one step
type ColorAnalysisRequest struct {
	URL  string    `json:"url"`
	Type ColorStep `json:"type"`
}

// FinalPalettes is the final-analysis payload keyed by region
type FinalPalettes map[string]ColorPalette
