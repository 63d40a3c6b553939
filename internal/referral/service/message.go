package service

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"referearn/internal/notify"
	"referearn/internal/referral/models"
)

var referralEmail = template.Must(template.New("referral").Parse(`
<h1>You've been referred to a course!</h1>
<p>Hello {{.RefereeName}},</p>
<p>{{.ReferrerName}} thinks you might be interested in our {{.Course}} course.</p>
<p>Click the link below to learn more:</p>
<a href="{{.CourseURL}}">View Course</a>
`))

type referralEmailData struct {
	RefereeName  string
	ReferrerName string
	Course       string
	CourseURL    string
}

// Subject is the subject line of the referral email.
func Subject(referrerName string) string {
	return referrerName + " has referred you to a course!"
}

// CourseURL is the link to the course page under baseURL.
func CourseURL(baseURL, course string) string {
	return strings.TrimRight(baseURL, "/") + "/courses/" + url.PathEscape(course)
}

// BuildMessage renders the referral email addressed to the referee.
func BuildMessage(baseURL string, r models.Referral) (notify.Message, error) {
	var body bytes.Buffer
	err := referralEmail.Execute(&body, referralEmailData{
		RefereeName:  r.RefereeName,
		ReferrerName: r.ReferrerName,
		Course:       r.Course,
		CourseURL:    CourseURL(baseURL, r.Course),
	})
	if err != nil {
		return notify.Message{}, fmt.Errorf("render referral email: %w", err)
	}
	return notify.Message{
		To:      r.RefereeEmail,
		Subject: Subject(r.ReferrerName),
		HTML:    body.String(),
	}, nil
}
