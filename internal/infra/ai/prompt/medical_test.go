package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

func TestUserPromptWithoutHistory(t *testing.T) {
	p := UserPrompt("Hemoglobin: 11.2 g/dL", nil)

	assert.NotContains(t, p, "KULLANICI GEÇMİŞİ")
	assert.Contains(t, p, "## 🏥 Genel Sağlık Durumu Değerlendirmesi")
	assert.Contains(t, p, "### ⚖️ Yasal Uyarı")
	assert.True(t, strings.HasSuffix(p, "Doküman İçeriği:\n---\nHemoglobin: 11.2 g/dL\n---\n"))
}

func TestUserPromptRendersHistoryDatesAndTypesOnly(t *testing.T) {
	hist := []analysis.Record{
		{Timestamp: "2024-01-05T08:00:00.000000", DocumentType: document.TypePDF, Analysis: "secret body one"},
		{Timestamp: "2024-02-10T09:15:00.000000", DocumentType: document.TypeImage, Analysis: "secret body two"},
	}
	p := UserPrompt("text", hist)

	assert.Contains(t, p, "**KULLANICI GEÇMİŞİ (Son 2 analiz):**\n1. 2024-01-05 - PDF Raporu\n2. 2024-02-10 - Tıbbi Görüntü\n")
	assert.NotContains(t, p, "secret body")
}

func TestSystemPromptIsNotADiagnostician(t *testing.T) {
	assert.Contains(t, SystemPrompt(), "teşhis koymak değil")
}
