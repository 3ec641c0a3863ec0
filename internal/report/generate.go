package report

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Input is what the analysis template needs from an attempt.
type Input struct {
	AttemptID   string
	TargetMajor string
	// AnsweredIDs are the question ids with a non-blank answer.
	AnsweredIDs []int
	// Total is the number of questions in the set. Unanswered questions
	// score zero.
	Total       int
	CompletedAt time.Time
}

type gradedAnswer struct {
	score    int
	feedback string
}

// answerGrades are the per-question grades of the analysis template,
// indexed by (question id - 1) modulo their count.
var answerGrades = []gradedAnswer{
	{85, "Jawaban menunjukkan pemahaman mendalam tentang jurusan pilihan"},
	{80, "Motivasi dijelaskan dengan baik, namun perlu lebih spesifik"},
	{82, "Pengalaman relevan sudah baik, tambahkan lebih banyak contoh"},
	{85, "Rencana persiapan terstruktur dan realistis"},
	{78, "Pemahaman tantangan ada, tapi kurang mendalam"},
}

var templateInsights = Insights{Motivation: 85, Technical: 75, CareerAlignment: 78}

var templateTraits = []Trait{
	{Name: "analytical_thinking", Level: "high"},
	{Name: "problem_solving", Level: "high"},
	{Name: "creativity", Level: "medium"},
	{Name: "teamwork", Level: "medium"},
	{Name: "communication", Level: "high"},
}

var templateStrengths = []string{
	"Memiliki motivasi yang kuat dan jelas",
	"Menunjukkan self-awareness yang baik",
	"Rencana persiapan yang terstruktur",
	"Visi karir yang realistis dan terukur",
}

var templateWeaknesses = []string{
	"Perlu memperdalam pengetahuan tentang kurikulum jurusan",
	"Pengalaman praktik masih terbatas",
	"Belum banyak mengikuti kegiatan ekstrakurikuler terkait",
}

var templateRecommendations = []string{
	"Ikuti webinar dan workshop tentang jurusan pilihan Anda",
	"Cari mentor dari jurusan tersebut",
	"Tingkatkan kemampuan akademik terutama di mata pelajaran dasar",
	"Aktif di organisasi yang relevan dengan minat Anda",
	"Buat portfolio atau project sederhana untuk menunjukkan komitmen",
}

// careersByMajor keys are lowercase.
var careersByMajor = map[string][]string{
	"computer science":   {"Software Engineer", "Data Scientist", "Product Manager", "DevOps Engineer", "AI/ML Engineer"},
	"teknik informatika": {"Software Engineer", "Network Engineer", "System Analyst", "Game Developer", "Cyber Security Analyst"},
	"kedokteran":         {"Dokter Umum", "Dokter Spesialis", "Peneliti Medis", "Dosen Kedokteran"},
	"psikologi":          {"Psikolog Klinis", "HR Specialist", "Konselor Pendidikan", "UX Researcher"},
	"hukum":              {"Advokat", "Notaris", "Legal Officer", "Hakim"},
}

var defaultCareers = []string{"Peneliti", "Konsultan", "Wirausahawan", "Pendidik"}

// Generate builds a report from the analysis template. Answered questions
// take the template grade for their id, unanswered ones score zero, and the
// final score averages over the whole set.
func Generate(in Input) *Report {
	ids := append([]int(nil), in.AnsweredIDs...)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	answered := len(ids)
	total := max(in.Total, answered)

	scores := make([]QuestionScore, 0, answered)
	sum := 0
	for _, id := range ids {
		g := answerGrades[positiveMod(id-1, len(answerGrades))]
		scores = append(scores, QuestionScore{QuestionID: id, Score: g.score, Feedback: g.feedback})
		sum += g.score
	}

	final := 0
	if total > 0 {
		final = int(math.Round(float64(sum) / float64(total)))
	}
	completion := 0.0
	if total > 0 {
		completion = float64(answered) / float64(total)
	}

	major := strings.TrimSpace(in.TargetMajor)
	r := &Report{
		AttemptID:       in.AttemptID,
		TargetMajor:     major,
		FinalScore:      final,
		Readiness:       ReadinessFor(final),
		CompletedAt:     in.CompletedAt,
		Strengths:       clone(templateStrengths),
		Weaknesses:      clone(templateWeaknesses),
		Recommendations: clone(templateRecommendations),
		Insights: Insights{
			Motivation:      scale(templateInsights.Motivation, completion),
			Technical:       scale(templateInsights.Technical, completion),
			CareerAlignment: scale(templateInsights.CareerAlignment, completion),
		},
		Traits:            append([]Trait(nil), templateTraits...),
		CareerSuggestions: careersFor(major),
		QuestionScores:    scores,
	}
	if answered < total {
		r.Weaknesses = append(r.Weaknesses,
			fmt.Sprintf("%d dari %d pertanyaan belum dijawab", total-answered, total))
	}
	r.Summary = summary(r)
	return r
}

func summary(r *Report) string {
	major := r.TargetMajor
	if major == "" {
		major = "jurusan pilihan Anda"
	}
	switch r.Readiness {
	case ReadinessReady:
		return fmt.Sprintf("Hasil analisis menunjukkan bahwa Anda memiliki kesiapan yang baik untuk melanjutkan studi %s. "+
			"Motivasi Anda jelas dan terukur, dengan pemahaman yang realistis tentang tantangan yang akan dihadapi.", major)
	case ReadinessFair:
		return fmt.Sprintf("Anda cukup siap untuk melanjutkan studi %s. "+
			"Beberapa area masih perlu diperkuat agar persiapan Anda lebih matang.", major)
	default:
		return fmt.Sprintf("Persiapan Anda menuju %s masih perlu ditingkatkan. "+
			"Lengkapi jawaban dan ikuti rekomendasi di bawah untuk memperkuat kesiapan Anda.", major)
	}
}

func careersFor(major string) []string {
	if c, ok := careersByMajor[strings.ToLower(major)]; ok {
		return clone(c)
	}
	return clone(defaultCareers)
}

func scale(v int, f float64) int {
	return int(math.Round(float64(v) * f))
}

func positiveMod(a, n int) int {
	return ((a % n) + n) % n
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
