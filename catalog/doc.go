// Package catalog holds the activity registry: the fixed set of
// extracurricular activities offered by the school and the students signed
// up for each of them.
//
// A Registry is built once from a seed (the built-in catalog or a YAML seed
// file) and lives only in memory. Three operations touch it:
//
//   - List returns a copy of every activity in catalog order.
//   - Enroll appends a student's email to an activity.
//   - Remove deletes a student's email from an activity.
//
// Failures are reported with sentinel errors that callers match with
// errors.Is: ErrActivityNotFound and ErrParticipantNotFound for lookups that
// miss, ErrAlreadySignedUp for duplicate enrollments.
//
// # Enrollment policy
//
// With PolicyPerActivity (the default) a student may join any number of
// activities but only once per activity. PolicyGlobal additionally rejects a
// signup when the email is already enrolled in any other activity.
//
// # Example
//
//	reg, err := catalog.New(catalog.DefaultSeed())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	msg, err := reg.Enroll("Chess Club", "new.student@mergington.edu")
//	if errors.Is(err, catalog.ErrAlreadySignedUp) {
//	    // ...
//	}
package catalog
