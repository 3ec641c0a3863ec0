package assessment

import (
	"fmt"
	"strings"
)

const (
	// DefaultDurationSeconds is the countdown length of one assessment (15 minutes).
	DefaultDurationSeconds = 900

	// LowTimeThreshold is the remaining-seconds mark below which the clock is styled as running out.
	LowTimeThreshold = 300

	// MinAnswerLengthHint is the advisory minimum answer length. It never blocks navigation or submission.
	MinAnswerLengthHint = 100
)

// Question is one essay prompt. Questions are immutable once loaded.
type Question struct {
	ID          int    `json:"id"`
	Prompt      string `json:"prompt"`
	Placeholder string `json:"placeholder"`
	Tip         string `json:"tip"`
}

var defaultQuestions = []Question{
	{
		ID:          1,
		Prompt:      "Mengapa Anda ingin mengambil jurusan ini?",
		Placeholder: "Jelaskan motivasi dan alasan mendalam Anda memilih jurusan ini. Ceritakan bagaimana Anda tertarik dengan bidang ini...",
		Tip:         "Berikan jawaban yang spesifik dan personal. Hindari jawaban umum seperti 'karena prospek kerja bagus'.",
	},
	{
		ID:          2,
		Prompt:      "Apa kekuatan dan kelemahan yang menurut Anda relevan dengan jurusan ini?",
		Placeholder: "Deskripsikan kekuatan yang akan membantu kesuksesan Anda, serta kelemahan yang perlu dibenahi...",
		Tip:         "Berikan contoh konkret dari pengalaman atau prestasi Anda. Jangan hanya menyebutkan, tetapi jelaskan relevansinya.",
	},
	{
		ID:          3,
		Prompt:      "Bagaimana Anda mempersiapkan diri untuk sukses di jurusan ini?",
		Placeholder: "Jelaskan langkah-langkah konkret yang telah atau akan Anda lakukan untuk mempersiapkan diri...",
		Tip:         "Tunjukkan inisiatif dan komitmen. Sebutkan aktivitas, kursus, atau pengalaman yang relevan.",
	},
	{
		ID:          4,
		Prompt:      "Apa ekspektasi Anda terhadap kehidupan sebagai mahasiswa jurusan ini?",
		Placeholder: "Deskripsikan visi Anda tentang bagaimana hidup sebagai mahasiswa dan apa yang ingin Anda raih...",
		Tip:         "Tunjukkan pemahaman yang realistis tentang tantangan dan peluang di jurusan tersebut.",
	},
	{
		ID:          5,
		Prompt:      "Rencana karir Anda setelah lulus dari jurusan ini?",
		Placeholder: "Jelaskan arah karir yang Anda impikan dan bagaimana jurusan ini akan membantu mencapainya...",
		Tip:         "Berikan gambaran jangka panjang yang terukur. Tunjukkan pemikiran matang tentang masa depan Anda.",
	},
}

// DefaultQuestions returns a copy of the built-in five-question essay set.
func DefaultQuestions() []Question {
	out := make([]Question, len(defaultQuestions))
	copy(out, defaultQuestions)
	return out
}

// ValidateQuestions checks that ids form the dense sequence 1..N and every prompt is non-empty.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	for i, q := range questions {
		if q.ID != i+1 {
			return fmt.Errorf("%w: question at position %d has id %d, want %d", ErrInvalidQuestionSet, i+1, q.ID, i+1)
		}
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("%w: question %d has an empty prompt", ErrInvalidQuestionSet, q.ID)
		}
	}
	return nil
}
