package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

// Payment statuses
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// StudentProfile extends an account.Account with role STUDENT; AccountID is both key and FK.
type StudentProfile struct {
	AccountID    string
	ParentPhone  *string
	GuardianName *string
	HealthNotes  *string
	IsRepeating  bool
	ClassID      string
}

// TeacherProfile extends an account.Account with role TEACHER.
// Classes taught are linked through Class.TeacherID.
type TeacherProfile struct {
	AccountID         string
	Bio               *string
	Certification     *string
	YearsOfExperience *int
}

type Class struct {
	ID         string
	TrackingID string
	Name       string
	TeacherID  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Term struct {
	ID           string
	TrackingID   string
	Name         string
	AcademicYear string
	StartDate    core.Date
	EndDate      core.Date
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Payment struct {
	ID         string
	TrackingID string
	Reference  string
	Amount     float64
	Status     string
	UserID     string
	StudentID  *string
	ClassID    *string
	TermID     *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Aggregates returned by the services. See projection.go for their JSON shape.
type (
	Student struct {
		Account  account.Account
		Profile  StudentProfile
		Class    *Class
		Teacher  *account.Account // teacher of Class
		Payments []Payment
	}

	Teacher struct {
		Account account.Account
		Profile TeacherProfile
		Classes []Class
	}

	ClassDetail struct {
		Class    Class
		Teacher  *account.Account
		Students []Student // Account & Profile only
	}

	TermDetail struct {
		Term     Term
		Payments []PaymentDetail
	}

	PaymentDetail struct {
		Payment Payment
		User    *account.Account
		Term    *Term
	}
)

// NewStudent contains information needed to enroll a new student.
type NewStudent struct {
	Name           string  `json:"name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	ExternalAuthID *string `json:"externalAuthId"`
	ParentPhone    *string `json:"parentPhone" validate:"omitempty,max=32"`
	GuardianName   *string `json:"guardianName"`
	HealthNotes    *string `json:"healthNotes"`
	IsRepeating    bool    `json:"isRepeating"`
	ClassID        string  `json:"classId" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.ExternalAuthID = core.CleanStringPtr(ns.ExternalAuthID)
	ns.ParentPhone = core.CleanStringPtr(ns.ParentPhone)
	ns.GuardianName = core.CleanStringPtr(ns.GuardianName)
	ns.HealthNotes = core.CleanStringPtr(ns.HealthNotes)
	ns.ClassID = core.CleanString(ns.ClassID)
	return validate.Struct(ns)
}

func (ns NewStudent) newAccount() account.NewAccount {
	return account.NewAccount{Name: ns.Name, Email: ns.Email, Role: account.RoleStudent, ExternalAuthID: ns.ExternalAuthID}
}

// UpdateStudent defines what may be changed on an existing student. nil fields are left untouched;
// an empty string clears an optional field.
type UpdateStudent struct {
	ID string `json:"id" validate:"required"`
	account.UpdateAccount
	ParentPhone  *string `json:"parentPhone" validate:"omitempty,max=32"`
	GuardianName *string `json:"guardianName"`
	HealthNotes  *string `json:"healthNotes"`
	IsRepeating  *bool   `json:"isRepeating"`
	ClassID      *string `json:"classId" validate:"omitempty,min=1"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.ID = core.CleanString(us.ID)
	us.UpdateAccount.Clean()
	if us.ClassID != nil {
		c := core.CleanString(*us.ClassID)
		us.ClassID = &c
	}
	return validate.Struct(us)
}

func (us UpdateStudent) apply(p *StudentProfile) {
	if us.ParentPhone != nil {
		p.ParentPhone = core.CleanStringPtr(us.ParentPhone)
	}
	if us.GuardianName != nil {
		p.GuardianName = core.CleanStringPtr(us.GuardianName)
	}
	if us.HealthNotes != nil {
		p.HealthNotes = core.CleanStringPtr(us.HealthNotes)
	}
	if us.IsRepeating != nil {
		p.IsRepeating = *us.IsRepeating
	}
	if us.ClassID != nil {
		p.ClassID = *us.ClassID
	}
}

// NewTeacher contains information needed to register a new teacher.
type NewTeacher struct {
	Name              string   `json:"name" validate:"required"`
	Email             string   `json:"email" validate:"required,email"`
	ExternalAuthID    *string  `json:"externalAuthId"`
	Bio               *string  `json:"bio"`
	Certification     *string  `json:"certification"`
	YearsOfExperience *int     `json:"yearsOfExperience" validate:"omitempty,gte=0"`
	ClassIDs          []string `json:"classIds" validate:"omitempty,dive,required"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.ExternalAuthID = core.CleanStringPtr(nt.ExternalAuthID)
	nt.Bio = core.CleanStringPtr(nt.Bio)
	nt.Certification = core.CleanStringPtr(nt.Certification)
	return validate.Struct(nt)
}

func (nt NewTeacher) newAccount() account.NewAccount {
	return account.NewAccount{Name: nt.Name, Email: nt.Email, Role: account.RoleTeacher, ExternalAuthID: nt.ExternalAuthID}
}

// UpdateTeacher defines what may be changed on an existing teacher.
// ClassIDs, when set, replaces the set of classes taught (an empty list unassigns them all).
type UpdateTeacher struct {
	ID string `json:"id" validate:"required"`
	account.UpdateAccount
	Bio               *string  `json:"bio"`
	Certification     *string  `json:"certification"`
	YearsOfExperience *int     `json:"yearsOfExperience" validate:"omitempty,gte=0"`
	ClassIDs          []string `json:"classIds" validate:"omitempty,dive,required"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	ut.ID = core.CleanString(ut.ID)
	ut.UpdateAccount.Clean()
	return validate.Struct(ut)
}

func (ut UpdateTeacher) apply(p *TeacherProfile) {
	if ut.Bio != nil {
		p.Bio = core.CleanStringPtr(ut.Bio)
	}
	if ut.Certification != nil {
		p.Certification = core.CleanStringPtr(ut.Certification)
	}
	if ut.YearsOfExperience != nil {
		p.YearsOfExperience = ut.YearsOfExperience
	}
}

type NewClass struct {
	Name      string  `json:"name" validate:"required"`
	TeacherID *string `json:"teacherId"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.TeacherID = core.CleanStringPtr(nc.TeacherID)
	return validate.Struct(nc)
}

// UpdateClass: an empty teacherId removes the class teacher.
type UpdateClass struct {
	ID        string  `json:"id" validate:"required"`
	Name      *string `json:"name" validate:"omitempty,min=1"`
	TeacherID *string `json:"teacherId"`
}

func (uc *UpdateClass) Validate(validate *validator.Validate) error {
	uc.ID = core.CleanString(uc.ID)
	if uc.Name != nil {
		n := core.CleanString(*uc.Name)
		uc.Name = &n
	}
	if uc.TeacherID != nil {
		t := core.CleanString(*uc.TeacherID)
		uc.TeacherID = &t
	}
	return validate.Struct(uc)
}

// NewTerm: academicYear is derived from startDate when omitted.
type NewTerm struct {
	Name         string     `json:"name" validate:"required"`
	AcademicYear *string    `json:"academicYear" validate:"omitempty,academicyear"`
	StartDate    *core.Date `json:"startDate" validate:"required"`
	EndDate      *core.Date `json:"endDate" validate:"required"`
}

func (nt *NewTerm) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.AcademicYear = core.CleanStringPtr(nt.AcademicYear)
	return validate.Struct(nt)
}

// UpdateTerm replaces the term's name and dates; academicYear is kept when omitted.
type UpdateTerm struct {
	ID           string     `json:"id" validate:"required"`
	Name         string     `json:"name" validate:"required"`
	AcademicYear *string    `json:"academicYear" validate:"omitempty,academicyear"`
	StartDate    *core.Date `json:"startDate" validate:"required"`
	EndDate      *core.Date `json:"endDate" validate:"required"`
}

func (ut *UpdateTerm) Validate(validate *validator.Validate) error {
	ut.ID = core.CleanString(ut.ID)
	ut.Name = core.CleanString(ut.Name)
	ut.AcademicYear = core.CleanStringPtr(ut.AcademicYear)
	return validate.Struct(ut)
}

// NewPayment: status always starts as PENDING.
type NewPayment struct {
	UserID    string  `json:"userId" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0,money"`
	StudentID *string `json:"studentId"`
	ClassID   *string `json:"classId"`
	TermID    *string `json:"termId"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.UserID = core.CleanString(np.UserID)
	np.StudentID = core.CleanStringPtr(np.StudentID)
	np.ClassID = core.CleanStringPtr(np.ClassID)
	np.TermID = core.CleanStringPtr(np.TermID)
	return validate.Struct(np)
}

// UpdatePayment: an empty studentId, classId or termId detaches the payment from it.
type UpdatePayment struct {
	ID        string   `json:"id" validate:"required"`
	Amount    *float64 `json:"amount" validate:"omitempty,gt=0,money"`
	Status    *string  `json:"status" validate:"omitempty,oneof=PENDING SUCCESS FAILED"`
	StudentID *string  `json:"studentId"`
	ClassID   *string  `json:"classId"`
	TermID    *string  `json:"termId"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	up.ID = core.CleanString(up.ID)
	for _, s := range []*string{up.Status, up.StudentID, up.ClassID, up.TermID} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(up)
}
