package handlers

import (
	"net/url"
	"regexp"
	"strings"
)

var taskIDPattern = regexp.MustCompile(`/tasks/([^/]+)`)

// TaskRoute is the outcome of matching a request URL against the task
// resource
type TaskRoute struct {
	IsTaskResource bool
	InstanceID     string
}

// HasInstance reports whether the URL named a single task
func (r TaskRoute) HasInstance() bool {
	return r.InstanceID != ""
}

// MatchTaskRoute decides whether rawURL targets the task resource and
// extracts the segment after /tasks/ as the instance ID. Any further
// segments are ignored. A URL that does not parse never matches.
//
// Matching runs on the escaped path, so the instance ID is the segment
// exactly as it appears in the URL: /tasks/a%3Fb yields "a%3Fb".
func MatchTaskRoute(rawURL string) TaskRoute {
	u, err := url.Parse(rawURL)
	if err != nil {
		return TaskRoute{}
	}
	path := u.EscapedPath()
	if !strings.Contains(path, "/tasks") {
		return TaskRoute{}
	}

	route := TaskRoute{IsTaskResource: true}
	if m := taskIDPattern.FindStringSubmatch(path); m != nil {
		route.InstanceID = m[1]
	}
	return route
}

// AuthAction names an auth endpoint
type AuthAction string

const (
	AuthActionNone   AuthAction = ""
	AuthActionSignIn AuthAction = "sign-in"
	AuthActionSignUp AuthAction = "sign-up"
)

// MatchAuthAction returns the auth action rawURL targets, or AuthActionNone
func MatchAuthAction(rawURL string) AuthAction {
	u, err := url.Parse(rawURL)
	if err != nil {
		return AuthActionNone
	}
	path := u.EscapedPath()
	switch {
	case strings.Contains(path, "/auth/sign-in"):
		return AuthActionSignIn
	case strings.Contains(path, "/auth/sign-up"):
		return AuthActionSignUp
	}
	return AuthActionNone
}
