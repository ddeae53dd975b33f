package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/medreport/internal/domain/analysis"
)

// SystemPrompt fixes the assistant's role: a preliminary reviewer of medical
// documents that never diagnoses.
func SystemPrompt() string {
	return "Sen tıbbi doküman analizi konusunda uzman bir yapay zeka asistanısın. " +
		"Görevin kesinlikle tıbbi teşhis koymak değil, sadece ön değerlendirme yapmaktır. " +
		"Analiz sonuçlarını Markdown formatında, detaylı ve anlaşılır şekilde sunacaksın. " +
		"Hastalıklı durumlar tespit ettiğinde MUTLAKA doktora gidilmesi gerektiğini vurgula. " +
		"Sağlıklı sonuçlarda da tedbiri elden bırakmaması gerektiğini belirt."
}

// CaptionPrompt asks a vision model for a single descriptive sentence.
func CaptionPrompt() string {
	return "Describe this image in one short, factual sentence. Do not speculate about a diagnosis."
}

// HistoryContext renders prior records as date and type only.
func HistoryContext(history []analysis.Record) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**KULLANICI GEÇMİŞİ (Son %d analiz):**\n", len(history))
	for i, r := range history {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, r.Date(), r.DocumentType)
	}
	return b.String()
}

// UserPrompt embeds the report structure, the history context and the
// document text.
func UserPrompt(documentText string, history []analysis.Record) string {
	var b strings.Builder
	b.WriteString("Aşağıdaki tıbbi dokümanı çok detaylı bir şekilde analiz et.\n")
	b.WriteString("Markdown formatında, kapsamlı ve eylem odaklı bir rapor oluştur. **Tüm çıktı Türkçe olmalıdır.**\n\n")
	if hc := HistoryContext(history); hc != "" {
		b.WriteString(hc)
		b.WriteString("\n")
	}
	b.WriteString(reportStructure)
	b.WriteString("\nDoküman İçeriği:\n---\n")
	b.WriteString(documentText)
	b.WriteString("\n---\n")
	return b.String()
}

const reportStructure = `Rapor yapısı aşağıdaki başlıkları içermeli:

## 🏥 Genel Sağlık Durumu Değerlendirmesi
Aşağıdaki kategorilerden birini seç ve gerekçesini açıkla:
- **🟢 Normal / Belirgin Sorun Yok**: Bulgular normal sınırlar içinde
- **🟡 Doktor Değerlendirmesi Gerekiyor**: Norm değerlerinden sapma var, uzman görüşü şart
- **🔴 ACİL DOKTOR MÜDAHALESI GEREKİYOR**: Kritik bulgular mevcut
- **⚪ Belirsiz / Yetersiz Veri**: Değerlendirme için yeterli bilgi yok

## 📋 Belge Türü ve Amacı
- Doküman türü ve ne amaçla yapıldığı
- Test/inceleme tarihi ve geçerliliği

## 🔍 Detaylı Bulgular Analizi
- Ana bulgular ve sonuçlar
- Önemli parametreler
- Dikkat çeken noktalar

## ⚠️ Referans Dışı Değerler
Her anormal değer için:
- **Parametre Adı**: Değer (Normal Aralık: X-Y)
- **Anlam**: Bu değerin ne ifade ettiği
- **Önem Derecesi**: Düşük/Orta/Yüksek risk

## 📚 Tıbbi Terimler Sözlüğü
Rapordaki 5-7 önemli tıbbi terim ve açıklamaları

## 🎯 Genel Değerlendirme ve Öneriler

### Durum Değerlendirmesi:
**Sağlıklı bulgular varsa:**
- Mevcut sağlık durumunun korunması için öneriler
- Düzenli kontrol önemleri
- Yaşam tarzı önerileri

**Sorunlu bulgular varsa:**
- ⚠️ **MUTLAKA DOKTORA GİDİN!**
- Hangi uzmanlık dalına başvurulmalı
- Aciliyet derecesi
- Doktora sorulması gereken sorular

### Takip Önerileri:
- Ne sıklıkla kontrol edilmeli
- Hangi testler tekrarlanmalı
- Yaşam tarzı değişiklikleri

## 📞 Acil Durum Kriterleri
Eğer aşağıdaki durumlardan biri varsa derhal 112'yi arayın:
- [Kritik değerler ve durumlar]

---

### ⚖️ Yasal Uyarı
**Bu analiz yapay zeka tarafından üretilmiş ön değerlendirmedir ve kesinlikle tıbbi teşhis yerine GEÇMEZ. Tıbbi kararlar almak için kullanılamaz. Sağlığınızla ilgili tüm kararları mutlaka uzman bir doktora danışarak alın.**
`
