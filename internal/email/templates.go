package email

import (
	"fmt"
	"html"
)

// YourTurn is the email sent to an applicant when the queue advanced to
// them. The 2-minute window mentioned here matches the sweep timeout the
// queue enforces.
func YourTurn(to, name, meetingLink string) Message {
	if name == "" {
		name = "there"
	}
	return Message{
		To:      to,
		Subject: "🔥 It's your turn! Join your roast now",
		HTML: fmt.Sprintf(`
			<h1>It's Your Turn!</h1>
			<p>Hi %s,</p>
			<p>It's your turn in the queue. You have <strong>2 minutes</strong> to join the roast session.</p>
			<p><a href="%s">Join Roast Now</a></p>
			<p>If you don't join within 2 minutes, you'll be automatically skipped and the next person will get their turn.</p>`,
			html.EscapeString(name), html.EscapeString(meetingLink)),
	}
}

// NewRequest notifies a roaster that someone asked them for a roast.
func NewRequest(to, roasterName, applicantName, company, roastType string) Message {
	who := html.EscapeString(applicantName)
	if company != "" {
		who = fmt.Sprintf("%s (%s)", who, html.EscapeString(company))
	}
	return Message{
		To:      to,
		Subject: "🔥 New MYC roast request!",
		HTML: fmt.Sprintf(`
			<h1>New Roast Request</h1>
			<p>Hi %s,</p>
			<p>%s wants their %s roasted. Head to your dashboard to accept or pass.</p>`,
			html.EscapeString(roasterName), who, html.EscapeString(roastType)),
	}
}

// Confirmation goes to both sides once a request is accepted.
func Confirmation(to, name, counterpartName, meetingLink, roastType string) Message {
	return Message{
		To:      to,
		Subject: "🔥 Your MYC roast session is confirmed!",
		HTML: fmt.Sprintf(`
			<h1>Your Roast Is Cooking</h1>
			<p>Hi %s,</p>
			<p>Your %s roast with %s is confirmed. The link below is live for 24 hours.</p>
			<p><a href="%s">Join the session</a></p>`,
			html.EscapeString(name), html.EscapeString(roastType),
			html.EscapeString(counterpartName), html.EscapeString(meetingLink)),
	}
}

// WentLive tells the ops mailbox that a roaster opened a live session.
func WentLive(to, roasterName, company string, durationMinutes int) Message {
	who := html.EscapeString(roasterName)
	if company != "" {
		who = fmt.Sprintf("%s (%s)", who, html.EscapeString(company))
	}
	return Message{
		To:      to,
		Subject: "📡 Roaster went live",
		HTML: fmt.Sprintf(`
			<p>%s is live for %d minutes.</p>`, who, durationMinutes),
	}
}
