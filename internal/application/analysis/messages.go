package analysis

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

// User-facing text is Turkish, matching the report language.

const msgFileMissing = "## ⚠️ Dosya Yükleme Hatası\n\nLütfen analiz için bir dosya yükleyin."

func msgUnsupported(filename string) string {
	return fmt.Sprintf("## ❌ Desteklenmeyen Dosya Türü\n\n'%s' dosya türü desteklenmiyor.\n\n**Desteklenen formatlar:** %s",
		filename, strings.ToUpper(strings.Join(document.AllowedExtensions, ", ")))
}

func msgEmpty(filename string) string {
	if document.Ext(filename) == ".pdf" {
		return fmt.Sprintf("## ❌ PDF Okuma Hatası\n\n'%s' dosyasından metin çıkarılamadı. Dosya taranmış resim olabilir.", filename)
	}
	return "## ❌ İçerik Hatası\n\nDosyadan analiz edilecek içerik çıkarılamadı."
}

func msgProcessing(err error) string {
	return fmt.Sprintf("## ❌ İşlem Hatası\n\nDosya işlenirken hata oluştu: %v", err)
}

func msgAnalysis(err error) string {
	return fmt.Sprintf("## ❌ Analiz Hatası\n\nOpenAI ile analiz sırasında bir hata oluştu: %v\n\nLütfen tekrar deneyin veya dosyanızı kontrol edin.", err)
}

func duplicateNote(count int) string {
	return fmt.Sprintf("\n\n---\n## 🔄 Geçmiş Analiz Bilgisi\nBu doküman daha önce %d kez analiz edildi.", count)
}

const (
	msgNoSession = "## 📋 Geçmiş Analiz Yok\n\nHenüz hiç analiz yapılmamış."
	msgNoHistory = "## 📋 Geçmiş Analiz Yok\n\nBu oturum için henüz analiz geçmişi bulunmuyor."
)

// formatHistory renders records newest first.
func formatHistory(recs []domain.Record) string {
	var b strings.Builder
	b.WriteString("## 📋 Geçmiş Analizleriniz\n\n")
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		fmt.Fprintf(&b, "### %d. Analiz - %s %s\n", len(recs)-i, r.Date(), r.Clock())
		fmt.Fprintf(&b, "**Doküman Türü:** %s\n\n", r.DocumentType)
		b.WriteString("---\n\n")
	}
	return b.String()
}
