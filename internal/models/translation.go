package models

// Stage is a translation's position in the production pipeline. StageAny is
// a filter wildcard, never stored.
type Stage string

const (
	StageAny                 Stage = "any"
	StageAITranscription     Stage = "ai_transcription"
	StageAudioProofreading   Stage = "audio_proofreading"
	StageGeneralTranslation  Stage = "general_translation"
	StageGeneralProofreading Stage = "general_proofreading"
	StageAdaptation          Stage = "adaptation"
	StageVoiceSearch         Stage = "voice_search"
	StageRecording           Stage = "recording"
	StageEnglishEditing      Stage = "english_editing"
	StageFinalEditing        Stage = "final_editing"
)

// Valid reports whether the value is a known stage, wildcard included.
func (s Stage) Valid() bool {
	switch s {
	case StageAny, StageAITranscription, StageAudioProofreading,
		StageGeneralTranslation, StageGeneralProofreading, StageAdaptation,
		StageVoiceSearch, StageRecording, StageEnglishEditing, StageFinalEditing:
		return true
	}
	return false
}

// Description names the stage the way the translation team describes it.
func (s Stage) Description() string {
	switch s {
	case StageAITranscription:
		return "Stage 1: AI Transcription (Spanish)"
	case StageAudioProofreading:
		return "Stage 2: Audio Proofreading (Final Transcription in Spanish)"
	case StageGeneralTranslation:
		return "Stage 3: General Translation (Only the parts that are well understood - Bilingual Person)"
	case StageGeneralProofreading:
		return "Stage 4: General Proofreading (Proofreading by native speaker)"
	case StageAdaptation:
		return "Stage 5: Adaptation (Special phrases and literal idioms - Bilingual and Native Group)"
	case StageVoiceSearch:
		return "Stage 6: Voice Search (Project Coordinator)"
	case StageRecording:
		return "Stage 7: Recording (Native Persons)"
	case StageEnglishEditing:
		return "Stage 8: English Editing (Separate file assembly - Host and Interviewee)"
	case StageFinalEditing:
		return "Stage 9: Final Editing (Bilingual Editor)"
	case StageAny:
		return "All Stages"
	default:
		return string(s)
	}
}

// Translation is one recording moving through the pipeline. IDs are assigned
// by the store on create and never reused within a process lifetime.
type Translation struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name" validate:"required"`
	Stage         Stage    `json:"stage" validate:"required,oneof=ai_transcription audio_proofreading general_translation general_proofreading adaptation voice_search recording english_editing final_editing"`
	Translators   []string `json:"translators" validate:"dive,required"`
	DueDate       string   `json:"due_date" validate:"required,date"`
	FileURL       string   `json:"file_url"`
	LastUpdatedBy string   `json:"last_update_by"`
}

// Validate checks structure and field constraints.
func (t *Translation) Validate() error {
	return validate.Struct(t)
}

// Sanitize strips HTML from the user-supplied text fields. The file URL is
// deliberately left alone so query strings survive.
// TODO: restrict file URLs to the recordings bucket.
func (t *Translation) Sanitize() {
	t.Name = CleanString(t.Name)
	t.DueDate = CleanString(t.DueDate)
	t.LastUpdatedBy = CleanString(t.LastUpdatedBy)
	for i, translator := range t.Translators {
		t.Translators[i] = CleanString(translator)
	}
}

// Clone returns a deep copy, detaching the translators slice.
func (t *Translation) Clone() *Translation {
	clone := *t
	clone.Translators = append([]string(nil), t.Translators...)
	return &clone
}
