// Package main provides the entry point for the CampusHub portal backend.
// It initializes and runs a web server using the Fiber framework that serves
// the student-organization portal: public sign-in (local and campus SSO),
// the member dashboard, and the admin console whose features are gated by
// per-admin permission records. The application uses gorm for data
// persistence and keeps permission lookups fast with an in-process
// time-bounded cache.
package main
