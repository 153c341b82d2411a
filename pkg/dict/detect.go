package dict

import (
	"os"
	"regexp"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/model"
)

// Weighted markers per dialect. Weights favour the tags unique to each DDL
// generation; shared vocabulary (the _dictionary_* header tags) scores low
// so it cannot outvote a definitive marker.
var (
	ddlmMarkers = []scoredPattern{
		{regexp.MustCompile(`_dictionary\.title`), 3},
		{regexp.MustCompile(`_definition\.id`), 5},
		{regexp.MustCompile(`_name\.category_id`), 2},
		{regexp.MustCompile(`_description\.text`), 2},
		{regexp.MustCompile(`_type\.contents`), 2},
		{regexp.MustCompile(`_alias\.definition_id`), 2},
		{regexp.MustCompile(`_dictionary\.ddl_conformance`), 3},
	}

	ddl1Markers = []scoredPattern{
		{regexp.MustCompile(`(?m)^data_on_this_dictionary\s*$`), 5},
		{regexp.MustCompile(`_dictionary_name`), 3},
		{regexp.MustCompile(`_dictionary_version`), 1},
		{regexp.MustCompile(`_dictionary_update`), 1},
	}

	ddl2Markers = []scoredPattern{
		{regexp.MustCompile(`_item\.name`), 4},
		{regexp.MustCompile(`_item\.category_id`), 3},
		{regexp.MustCompile(`_item_description\.description`), 3},
		{regexp.MustCompile(`_item_type\.code`), 3},
		{regexp.MustCompile(`_item_aliases\.alias_name`), 2},
		{regexp.MustCompile(`_datablock\.id`), 2},
	}

	dataBlockPattern  = regexp.MustCompile(`(?m)^data_\S+`)
	saveFramePattern  = regexp.MustCompile(`(?m)^save_\S+`)
	save2FramePattern = regexp.MustCompile(`(?m)^save__`)
	ddl1NamePattern   = regexp.MustCompile(`(?m)^\s*_name\s+`)
	ddl1TypePattern   = regexp.MustCompile(`(?m)^\s*_type\s+(char|numb|null)\s*$`)

	definitionIDMarker     = regexp.MustCompile(`_definition\.id`)
	itemNameMarker         = regexp.MustCompile(`_item\.name`)
	onThisDictionaryMarker = regexp.MustCompile(`data_on_this_dictionary`)
)

type scoredPattern struct {
	re     *regexp.Regexp
	weight int
}

// DetectFormat scores the dictionary content against the marker tables and
// returns the winning dialect. The winner must beat the runner-up by a 1.5x
// margin; closer races fall back to the definitive markers (_definition.id,
// _item.name, data_on_this_dictionary), which never co-occur across
// dialects. A zero score for every dialect yields FormatUnknown.
func DetectFormat(content string) model.DictionaryFormat {
	scores := map[model.DictionaryFormat]int{
		model.FormatDDLm: scoreMarkers(content, ddlmMarkers),
		model.FormatDDL1: scoreDDL1(content),
		model.FormatDDL2: scoreDDL2(content),
	}

	best, bestScore := model.FormatUnknown, 0
	runnerUp := 0
	for _, format := range []model.DictionaryFormat{model.FormatDDLm, model.FormatDDL1, model.FormatDDL2} {
		s := scores[format]
		if s > bestScore {
			runnerUp = bestScore
			best, bestScore = format, s
		} else if s > runnerUp {
			runnerUp = s
		}
	}

	if bestScore == 0 {
		return model.FormatUnknown
	}
	if runnerUp > 0 && float64(bestScore) < float64(runnerUp)*1.5 {
		switch {
		case definitionIDMarker.MatchString(content):
			return model.FormatDDLm
		case itemNameMarker.MatchString(content):
			return model.FormatDDL2
		case onThisDictionaryMarker.MatchString(content):
			return model.FormatDDL1
		}
	}
	return best
}

// DetectFormatFile reads path and classifies its contents.
func DetectFormatFile(path string) (model.DictionaryFormat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormatUnknown, err
	}
	return DetectFormat(string(data)), nil
}

func scoreMarkers(content string, markers []scoredPattern) int {
	score := 0
	for _, m := range markers {
		if m.re.MatchString(content) {
			score += m.weight
		}
	}
	return score
}

func scoreDDL1(content string) int {
	score := scoreMarkers(content, ddl1Markers)

	// Multiple flat data blocks with no save frames is the DDL1 shape.
	if len(dataBlockPattern.FindAllString(content, -1)) > 1 &&
		len(saveFramePattern.FindAllString(content, -1)) == 0 {
		score += 5
	}
	if len(ddl1NamePattern.FindAllString(content, -1)) > 5 {
		score += 3
	}
	if len(ddl1TypePattern.FindAllString(content, -1)) > 5 {
		score += 3
	}
	if strings.Contains(content, "_related_item") && strings.Contains(content, "_related_function") {
		score += 2
	}
	return score
}

func scoreDDL2(content string) int {
	score := scoreMarkers(content, ddl2Markers)
	if len(save2FramePattern.FindAllString(content, -1)) > 5 {
		score += 5
	}
	return score
}

// FormatDescription returns a short human description of a dialect for CLI
// and report output.
func FormatDescription(format model.DictionaryFormat) string {
	switch format {
	case model.FormatDDLm:
		return "DDLm (modern CIF dictionary language, save frames with _definition.id)"
	case model.FormatDDL1:
		return "DDL1 (legacy flat data blocks, one definition per block)"
	case model.FormatDDL2:
		return "DDL2 (mmCIF-style item definitions)"
	default:
		return "unrecognised dictionary format"
	}
}
