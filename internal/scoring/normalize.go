// Package scoring turns raw engine output into a normalized daily analysis.
package scoring

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/benvon/selfspeak/internal/models"
	"github.com/tidwall/gjson"
)

const (
	// DefaultScore replaces any score that cannot be read as an integer.
	DefaultScore = 50
	// DefaultEmotion is used when the engine omits dominant_emotion.
	DefaultEmotion = "Reflective"
	// MaxEmotionLength bounds dominant_emotion, in characters.
	MaxEmotionLength = 50
	// MaxTags is the number of behavioral tags kept per analysis.
	MaxTags = 4
)

var (
	// ErrNotObject is returned when the payload is not a JSON object.
	ErrNotObject = errors.New("analysis payload is not a JSON object")
	// ErrTagsNotList is returned when behavioral_tags is not an array.
	ErrTagsNotList = errors.New("behavioral_tags must be an array")
	// ErrNoValidTags is returned when no taxonomy tag survives filtering.
	ErrNoValidTags = errors.New("at least 1 valid behavioral tag is required")
)

// ScoreKeys are the five raw scores, each readable as "X" or "X_score".
var ScoreKeys = []string{"confidence", "abundance", "clarity", "gratitude", "resistance"}

// Normalize validates an engine payload and returns the analysis fields it
// describes. IDs, ownership and timestamps are left for the caller.
func Normalize(raw []byte) (*models.DailyAnalysis, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrNotObject
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, ErrNotObject
	}

	a := &models.DailyAnalysis{
		ConfidenceScore: readScore(root, "confidence"),
		AbundanceScore:  readScore(root, "abundance"),
		ClarityScore:    readScore(root, "clarity"),
		GratitudeScore:  readScore(root, "gratitude"),
		ResistanceScore: readScore(root, "resistance"),
	}

	a.DominantEmotion = readEmotion(root.Get("dominant_emotion"))
	a.OverallTone = readTone(root.Get("overall_tone"))
	a.TimeHorizon = readHorizon(root.Get("time_horizon"))
	a.GoalPresent = root.Get("goal_present").Bool()
	a.SelfDoubtPresent = root.Get("self_doubt_present").Bool()

	tags, err := readTags(root.Get("behavioral_tags"))
	if err != nil {
		return nil, err
	}
	a.BehavioralTags = tags

	a.AlignmentScore = Alignment(a.ConfidenceScore, a.AbundanceScore, a.ClarityScore, a.GratitudeScore, a.ResistanceScore)
	return a, nil
}

// Present reports whether a value exists and is not JSON null.
func Present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// ScoreValue returns key, falling back to key+"_score".
func ScoreValue(root gjson.Result, key string) gjson.Result {
	if v := root.Get(key); Present(v) {
		return v
	}
	return root.Get(key + "_score")
}

func readScore(root gjson.Result, key string) int {
	return clampScore(coerceInt(ScoreValue(root, key)))
}

func coerceInt(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		n := v.Float()
		// Out-of-range floats would overflow int; clamping happens anyway.
		if n >= 100 {
			return 100
		}
		if n <= 0 {
			return 0
		}
		return int(n)
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return DefaultScore
		}
		return n
	case gjson.True:
		return 1
	case gjson.False:
		return 0
	default:
		return DefaultScore
	}
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func readEmotion(v gjson.Result) string {
	if !Present(v) {
		return DefaultEmotion
	}
	s := v.String()
	if utf8.RuneCountInString(s) > MaxEmotionLength {
		s = string([]rune(s)[:MaxEmotionLength])
	}
	return s
}

func readTone(v gjson.Result) models.Tone {
	switch t := models.Tone(strings.ToLower(strings.TrimSpace(v.String()))); t {
	case models.ToneCalm, models.ToneAnxious, models.ToneDriven, models.ToneScattered:
		return t
	default:
		return models.ToneCalm
	}
}

func readHorizon(v gjson.Result) models.TimeHorizon {
	switch h := models.TimeHorizon(strings.ToLower(strings.TrimSpace(v.String()))); h {
	case models.TimeHorizonShort, models.TimeHorizonLong, models.TimeHorizonVague:
		return h
	default:
		return models.TimeHorizonVague
	}
}

func readTags(v gjson.Result) ([]string, error) {
	// A missing list reads as empty and fails the minimum below.
	if Present(v) && !v.IsArray() {
		return nil, ErrTagsNotList
	}
	tags := make([]string, 0, MaxTags)
	for _, item := range v.Array() {
		if item.Type != gjson.String || !IsBehavioralTag(item.Str) {
			continue
		}
		tags = append(tags, item.Str)
		if len(tags) == MaxTags {
			break
		}
	}
	if len(tags) == 0 {
		return nil, ErrNoValidTags
	}
	return tags, nil
}
