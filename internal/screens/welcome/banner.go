package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

const bannerArt = `
 ██████╗ ██████╗  ██████╗ ██████╗ ██╗██████╗ ██╗      █████╗ ███╗   ██╗
 ██╔══██╗██╔══██╗██╔═══██╗██╔══██╗██║██╔══██╗██║     ██╔══██╗████╗  ██║
 ██████╔╝██████╔╝██║   ██║██║  ██║██║██████╔╝██║     ███████║██╔██╗ ██║
 ██╔═══╝ ██╔══██╗██║   ██║██║  ██║██║██╔═══╝ ██║     ██╔══██║██║╚██╗██║
 ██║     ██║  ██║╚██████╔╝██████╔╝██║██║     ███████╗██║  ██║██║ ╚████║
 ╚═╝     ╚═╝  ╚═╝ ╚═════╝ ╚═════╝ ╚═╝╚═╝     ╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝`

const bannerCompact = "P R O D I P L A N"

// bannerMinWidth is the narrowest terminal that fits bannerArt.
const bannerMinWidth = 74

// RenderBanner returns the product banner styled in the primary color.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerMinWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}

// feature is one selling point shown under the banner.
type feature struct {
	title string
	desc  string
}

var features = []feature{
	{"Analisis AI Mendalam", "Esai kamu dianalisis untuk mengungkap minat dan potensi."},
	{"Rekomendasi Jurusan", "3-5 rekomendasi jurusan yang dipersonalisasi."},
	{"Laporan Detail", "Kekuatan, area pengembangan, dan strategi persiapan."},
}

func renderFeatures() string {
	titleStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	var rows []string
	for _, f := range features {
		rows = append(rows, titleStyle.Render("✦ "+f.title)+"  "+descStyle.Render(f.desc))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
