package invitation

import (
	"strings"
)

// Link builds the personal invitation URL for code under baseURL
func Link(baseURL, code string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/?code=" + code
}

const whatsAppTemplate = "Assalamu'alaikum Warahmatullahi Wabarakatuh\n\n" +
	"Kepada Yth.\n" +
	"Bapak/Ibu/Saudara/i\n" +
	"*%RECIPIENT%*\n\n" +
	"Tanpa mengurangi rasa hormat, perkenankan kami mengundang Bapak/Ibu/Saudara/i untuk menghadiri acara pernikahan kami.\n\n" +
	"Berikut link undangan kami, untuk info lengkap dari acara bisa kunjungi:\n" +
	"%LINK%\n\n" +
	"Merupakan suatu kebahagiaan bagi kami apabila Bapak/Ibu/Saudara/i berkenan untuk hadir dan memberikan doa restu.\n\n" +
	"Mohon maaf perihal undangan hanya dibagikan melalui pesan ini.\n\n" +
	"Terima kasih banyak atas perhatiannya.\n\n" +
	"Wassalamu'alaikum Warahmatullahi Wabarakatuh"

// WhatsAppMessage renders the invitation text sent to a guest. It depends only on
// its arguments; an empty partner drops the " & partner" clause and nothing else.
func WhatsAppMessage(name, partner, code, baseURL string) string {
	recipient := strings.TrimSpace(name)
	if p := strings.TrimSpace(partner); p != "" {
		recipient += " & " + p
	}
	r := strings.NewReplacer("%RECIPIENT%", recipient, "%LINK%", Link(baseURL, code))
	return r.Replace(whatsAppTemplate)
}
