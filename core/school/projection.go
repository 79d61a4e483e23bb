package school

import (
	"time"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

// Views are the JSON shapes served by the API: account and profile fields merged on one level,
// relations nested as summaries. Absent relations are omitted; collections are never null.
type (
	StudentView struct {
		ID             string        `json:"id"`
		TrackingID     string        `json:"trackingId"`
		Name           string        `json:"name"`
		Email          string        `json:"email"`
		Role           string        `json:"role"`
		ExternalAuthID *string       `json:"externalAuthId,omitempty"`
		ParentPhone    *string       `json:"parentPhone,omitempty"`
		GuardianName   *string       `json:"guardianName,omitempty"`
		HealthNotes    *string       `json:"healthNotes,omitempty"`
		IsRepeating    bool          `json:"isRepeating"`
		ClassID        string        `json:"classId"`
		Class          *ClassSummary `json:"class,omitempty"`
		Payments       []PaymentView `json:"payments"`
		CreatedAt      time.Time     `json:"createdAt"`
		UpdatedAt      time.Time     `json:"updatedAt"`
	}

	TeacherView struct {
		ID                string         `json:"id"`
		TrackingID        string         `json:"trackingId"`
		Name              string         `json:"name"`
		Email             string         `json:"email"`
		Role              string         `json:"role"`
		ExternalAuthID    *string        `json:"externalAuthId,omitempty"`
		Bio               *string        `json:"bio,omitempty"`
		Certification     *string        `json:"certification,omitempty"`
		YearsOfExperience *int           `json:"yearsOfExperience,omitempty"`
		Classes           []ClassSummary `json:"classes"`
		CreatedAt         time.Time      `json:"createdAt"`
		UpdatedAt         time.Time      `json:"updatedAt"`
	}

	ClassView struct {
		ID         string           `json:"id"`
		TrackingID string           `json:"trackingId"`
		Name       string           `json:"name"`
		TeacherID  *string          `json:"teacherId,omitempty"`
		Teacher    *account.Summary `json:"teacher,omitempty"`
		Students   []StudentSummary `json:"students"`
		CreatedAt  time.Time        `json:"createdAt"`
		UpdatedAt  time.Time        `json:"updatedAt"`
	}

	TermView struct {
		ID           string        `json:"id"`
		TrackingID   string        `json:"trackingId"`
		Name         string        `json:"name"`
		AcademicYear string        `json:"academicYear"`
		StartDate    core.Date     `json:"startDate"`
		EndDate      core.Date     `json:"endDate"`
		Payments     []PaymentView `json:"payments"`
		CreatedAt    time.Time     `json:"createdAt"`
		UpdatedAt    time.Time     `json:"updatedAt"`
	}

	PaymentView struct {
		ID         string           `json:"id"`
		TrackingID string           `json:"trackingId"`
		Reference  string           `json:"reference"`
		Amount     float64          `json:"amount"`
		Status     string           `json:"status"`
		UserID     string           `json:"userId"`
		User       *account.Summary `json:"user,omitempty"`
		StudentID  *string          `json:"studentId,omitempty"`
		ClassID    *string          `json:"classId,omitempty"`
		TermID     *string          `json:"termId,omitempty"`
		Term       *TermSummary     `json:"term,omitempty"`
		CreatedAt  time.Time        `json:"createdAt"`
		UpdatedAt  time.Time        `json:"updatedAt"`
	}

	ClassSummary struct {
		ID         string           `json:"id"`
		TrackingID string           `json:"trackingId"`
		Name       string           `json:"name"`
		Teacher    *account.Summary `json:"teacher,omitempty"`
	}

	StudentSummary struct {
		ID          string `json:"id"`
		TrackingID  string `json:"trackingId"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		IsRepeating bool   `json:"isRepeating"`
	}

	TermSummary struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		AcademicYear string    `json:"academicYear"`
		StartDate    core.Date `json:"startDate"`
		EndDate      core.Date `json:"endDate"`
	}
)

func summarize(acc *account.Account) *account.Summary {
	if acc == nil {
		return nil
	}
	return acc.Summary()
}

func summarizeClass(c Class, teacher *account.Account) ClassSummary {
	return ClassSummary{ID: c.ID, TrackingID: c.TrackingID, Name: c.Name, Teacher: summarize(teacher)}
}

func FlattenStudent(s Student) StudentView {
	v := StudentView{
		ID:             s.Account.ID,
		TrackingID:     s.Account.TrackingID,
		Name:           s.Account.Name,
		Email:          s.Account.Email,
		Role:           s.Account.Role,
		ExternalAuthID: s.Account.ExternalAuthID,
		ParentPhone:    s.Profile.ParentPhone,
		GuardianName:   s.Profile.GuardianName,
		HealthNotes:    s.Profile.HealthNotes,
		IsRepeating:    s.Profile.IsRepeating,
		ClassID:        s.Profile.ClassID,
		Payments:       make([]PaymentView, 0, len(s.Payments)),
		CreatedAt:      s.Account.CreatedAt,
		UpdatedAt:      s.Account.UpdatedAt,
	}
	if s.Class != nil {
		cs := summarizeClass(*s.Class, s.Teacher)
		v.Class = &cs
	}
	for _, p := range s.Payments {
		v.Payments = append(v.Payments, FlattenPayment(PaymentDetail{Payment: p}))
	}
	return v
}

func FlattenTeacher(t Teacher) TeacherView {
	v := TeacherView{
		ID:                t.Account.ID,
		TrackingID:        t.Account.TrackingID,
		Name:              t.Account.Name,
		Email:             t.Account.Email,
		Role:              t.Account.Role,
		ExternalAuthID:    t.Account.ExternalAuthID,
		Bio:               t.Profile.Bio,
		Certification:     t.Profile.Certification,
		YearsOfExperience: t.Profile.YearsOfExperience,
		Classes:           make([]ClassSummary, 0, len(t.Classes)),
		CreatedAt:         t.Account.CreatedAt,
		UpdatedAt:         t.Account.UpdatedAt,
	}
	for _, c := range t.Classes {
		v.Classes = append(v.Classes, summarizeClass(c, nil))
	}
	return v
}

func FlattenClass(d ClassDetail) ClassView {
	v := ClassView{
		ID:         d.Class.ID,
		TrackingID: d.Class.TrackingID,
		Name:       d.Class.Name,
		TeacherID:  d.Class.TeacherID,
		Teacher:    summarize(d.Teacher),
		Students:   make([]StudentSummary, 0, len(d.Students)),
		CreatedAt:  d.Class.CreatedAt,
		UpdatedAt:  d.Class.UpdatedAt,
	}
	for _, s := range d.Students {
		v.Students = append(v.Students, StudentSummary{
			ID:          s.Account.ID,
			TrackingID:  s.Account.TrackingID,
			Name:        s.Account.Name,
			Email:       s.Account.Email,
			IsRepeating: s.Profile.IsRepeating,
		})
	}
	return v
}

func FlattenTerm(d TermDetail) TermView {
	v := TermView{
		ID:           d.Term.ID,
		TrackingID:   d.Term.TrackingID,
		Name:         d.Term.Name,
		AcademicYear: d.Term.AcademicYear,
		StartDate:    d.Term.StartDate,
		EndDate:      d.Term.EndDate,
		Payments:     make([]PaymentView, 0, len(d.Payments)),
		CreatedAt:    d.Term.CreatedAt,
		UpdatedAt:    d.Term.UpdatedAt,
	}
	for _, p := range d.Payments {
		v.Payments = append(v.Payments, FlattenPayment(p))
	}
	return v
}

func FlattenPayment(d PaymentDetail) PaymentView {
	v := PaymentView{
		ID:         d.Payment.ID,
		TrackingID: d.Payment.TrackingID,
		Reference:  d.Payment.Reference,
		Amount:     d.Payment.Amount,
		Status:     d.Payment.Status,
		UserID:     d.Payment.UserID,
		User:       summarize(d.User),
		StudentID:  d.Payment.StudentID,
		ClassID:    d.Payment.ClassID,
		TermID:     d.Payment.TermID,
		CreatedAt:  d.Payment.CreatedAt,
		UpdatedAt:  d.Payment.UpdatedAt,
	}
	if d.Term != nil {
		v.Term = &TermSummary{
			ID:           d.Term.ID,
			Name:         d.Term.Name,
			AcademicYear: d.Term.AcademicYear,
			StartDate:    d.Term.StartDate,
			EndDate:      d.Term.EndDate,
		}
	}
	return v
}

// Flatten helpers for lists

func FlattenStudents(list []Student) []StudentView {
	views := make([]StudentView, 0, len(list))
	for _, s := range list {
		views = append(views, FlattenStudent(s))
	}
	return views
}

func FlattenTeachers(list []Teacher) []TeacherView {
	views := make([]TeacherView, 0, len(list))
	for _, t := range list {
		views = append(views, FlattenTeacher(t))
	}
	return views
}

func FlattenClasses(list []ClassDetail) []ClassView {
	views := make([]ClassView, 0, len(list))
	for _, c := range list {
		views = append(views, FlattenClass(c))
	}
	return views
}

func FlattenTerms(list []TermDetail) []TermView {
	views := make([]TermView, 0, len(list))
	for _, t := range list {
		views = append(views, FlattenTerm(t))
	}
	return views
}

func FlattenPayments(list []PaymentDetail) []PaymentView {
	views := make([]PaymentView, 0, len(list))
	for _, p := range list {
		views = append(views, FlattenPayment(p))
	}
	return views
}
