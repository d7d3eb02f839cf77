package conversation

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultAssistantName = "Muhabbet AI"
	DefaultCreator       = "Ahmet"
	DefaultLocation      = "Europe/Istanbul"
)

var turkishDays = [...]string{
	time.Sunday:    "Pazar",
	time.Monday:    "Pazartesi",
	time.Tuesday:   "Salı",
	time.Wednesday: "Çarşamba",
	time.Thursday:  "Perşembe",
	time.Friday:    "Cuma",
	time.Saturday:  "Cumartesi",
}

// TurkishDay returns the Turkish name of the weekday.
func TurkishDay(d time.Weekday) string {
	return turkishDays[d]
}

// PromptBuilder renders the persona system prompt. Now defaults to time.Now
// and is only overridden in tests.
type PromptBuilder struct {
	AssistantName string
	Creator       string
	Location      *time.Location
	Now           func() time.Time
}

// NewPromptBuilder resolves tz (an IANA name) and returns a builder. An empty
// or unknown zone falls back to Istanbul time.
func NewPromptBuilder(name, creator, tz string) PromptBuilder {
	if name == "" {
		name = DefaultAssistantName
	}
	if creator == "" {
		creator = DefaultCreator
	}
	return PromptBuilder{
		AssistantName: name,
		Creator:       creator,
		Location:      LoadLocation(tz),
		Now:           time.Now,
	}
}

// LoadLocation loads tz, falling back to Europe/Istanbul and then to a fixed
// UTC+3 zone.
func LoadLocation(tz string) *time.Location {
	if tz == "" {
		tz = DefaultLocation
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(DefaultLocation); err == nil {
		return loc
	}
	return time.FixedZone("+03", 3*60*60)
}

func (b PromptBuilder) now() time.Time {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	loc := b.Location
	if loc == nil {
		loc = LoadLocation("")
	}
	return now().In(loc)
}

// Stamp formats t as "Pazartesi, 19.10.2026 14:05:09".
func Stamp(t time.Time) string {
	return TurkishDay(t.Weekday()) + ", " + t.Format("02.01.2006 15:04:05")
}

// Build renders the system prompt for this instant. The vision clause is only
// included when image analysis is available.
func (b PromptBuilder) Build(vision bool) string {
	name := b.AssistantName
	if name == "" {
		name = DefaultAssistantName
	}
	creator := b.Creator
	if creator == "" {
		creator = DefaultCreator
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sen '%s' adında, zeki ve samimi bir yapay zeka asistanısın. ", name)
	sb.WriteString("Gerçek bir arkadaş gibi konuşur, güvenilir bir danışman gibi davranırsın.\n\n")

	sb.WriteString("📌 KİMLİĞİN:\n")
	fmt.Fprintf(&sb, "- İsmin: %s\n", name)
	fmt.Fprintf(&sb, "- Yaratıcın: %s\n", creator)
	fmt.Fprintf(&sb, "- Güncel bilgi: Bugün %s (her mesajda güncellenir)\n\n", Stamp(b.now()))

	sb.WriteString("💬 İLETİŞİM STİLİN:\n")
	sb.WriteString("- Türkçeyi doğal ve akıcı kullanırsın\n")
	sb.WriteString("- Net konuşur, dolgu cümlelerden kaçınırsın\n")
	sb.WriteString("- Emojiyi nadiren kullanırsın\n\n")

	sb.WriteString("🎯 ÖNCELİKLERİN:\n")
	sb.WriteString("1. Kullanıcıya gerçekten değer kat\n")
	sb.WriteString("2. Yanlış bilgi verme, bilmiyorsan söyle\n")
	sb.WriteString("3. Konuşma geçmişiyle tutarlı kal")

	if vision {
		sb.WriteString("\n\n📸 Görsel analiz yeteneğin de var. Görselleri detaylı inceleyip yorumlayabilirsin.")
	}
	return sb.String()
}

// WelcomeText renders the opening assistant message of a new conversation.
func WelcomeText(name, creator string, now time.Time) string {
	if name == "" {
		name = DefaultAssistantName
	}
	if creator == "" {
		creator = DefaultCreator
	}
	return fmt.Sprintf("Selam! 👋 Ben %s, %s'in en yeni projesi. Seninle her türlü mevzuyu konuşmaya hazırım.\n\n"+
		"📅 Bugün %s, %s ve saat %s.\n\n"+
		"Benimle ne konuşmak istersin? Felsefe, teknoloji, sanat, günlük hayat... Görsel de yükleyebilirsin, analiz edeyim.",
		name, creator, TurkishDay(now.Weekday()), now.Format("02.01.2006"), now.Format("15:04"))
}

// Welcome renders the welcome text using the builder's persona and clock.
func (b PromptBuilder) Welcome() string {
	return WelcomeText(b.AssistantName, b.Creator, b.now())
}
