package models

// Rating is the letter grade given to a school or an inspection.
// RatingAPlus only appears in score tables; it is never stored.
type Rating string

const (
	RatingAPlus Rating = "A+"
	RatingA     Rating = "A"
	RatingBPlus Rating = "B+"
	RatingB     Rating = "B"
	RatingC     Rating = "C"
	RatingD     Rating = "D"
)

var Ratings = []Rating{RatingA, RatingBPlus, RatingB, RatingC, RatingD}

func (r Rating) Valid() bool {
	switch r {
	case RatingA, RatingBPlus, RatingB, RatingC, RatingD:
		return true
	}
	return false
}

type SchoolType string

const (
	SchoolTypeGovernment SchoolType = "Government School"
	SchoolTypeAided      SchoolType = "Aided School"
)

func (t SchoolType) Valid() bool {
	return t == SchoolTypeGovernment || t == SchoolTypeAided
}

type SchoolCategory string

const (
	CategoryPrimary         SchoolCategory = "Primary School"
	CategoryHigherPrimary   SchoolCategory = "Higher Primary"
	CategoryHighSchool      SchoolCategory = "High School"
	CategoryHigherSecondary SchoolCategory = "Higher Secondary"
)

func (c SchoolCategory) Valid() bool {
	switch c {
	case CategoryPrimary, CategoryHigherPrimary, CategoryHighSchool, CategoryHigherSecondary:
		return true
	}
	return false
}

// AdminLevel is the administrative tier a school reports to. Only used for grouping.
type AdminLevel string

const (
	LevelState    AdminLevel = "State Level"
	LevelDistrict AdminLevel = "District Level"
	LevelTaluk    AdminLevel = "Taluk Level"
)

var AdminLevels = []AdminLevel{LevelState, LevelDistrict, LevelTaluk}

func (l AdminLevel) Valid() bool {
	switch l {
	case LevelState, LevelDistrict, LevelTaluk:
		return true
	}
	return false
}

type SchoolStatus string

const (
	SchoolStatusActive      SchoolStatus = "Active"
	SchoolStatusUnderReview SchoolStatus = "Under Review"
	SchoolStatusSuspended   SchoolStatus = "Suspended"
)

func (s SchoolStatus) Valid() bool {
	switch s {
	case SchoolStatusActive, SchoolStatusUnderReview, SchoolStatusSuspended:
		return true
	}
	return false
}

type FacilityStatus string

const (
	FacilityAvailable        FacilityStatus = "Available"
	FacilityUnderMaintenance FacilityStatus = "Under Maintenance"
	FacilityNotAvailable     FacilityStatus = "Not Available"
)

func (s FacilityStatus) Valid() bool {
	switch s {
	case FacilityAvailable, FacilityUnderMaintenance, FacilityNotAvailable:
		return true
	}
	return false
}

type InspectionType string

const (
	InspectionRoutine   InspectionType = "routine"
	InspectionComplaint InspectionType = "complaint"
	InspectionFollowUp  InspectionType = "follow-up"
	InspectionSurprise  InspectionType = "surprise"
)

func (t InspectionType) Valid() bool {
	switch t {
	case InspectionRoutine, InspectionComplaint, InspectionFollowUp, InspectionSurprise:
		return true
	}
	return false
}

type InspectionStatus string

const (
	InspectionCompleted        InspectionStatus = "Completed"
	InspectionPendingReview    InspectionStatus = "Pending Review"
	InspectionFollowUpRequired InspectionStatus = "Follow-up Required"
)

func (s InspectionStatus) Valid() bool {
	switch s {
	case InspectionCompleted, InspectionPendingReview, InspectionFollowUpRequired:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// FacilityType names the part of a school a facility photo shows.
type FacilityType string

const (
	FacilityKitchen    FacilityType = "kitchen"
	FacilityStoreroom  FacilityType = "storeroom"
	FacilityDining     FacilityType = "dining"
	FacilityWashroom   FacilityType = "washroom"
	FacilityPlayground FacilityType = "playground"
	FacilityClassroom  FacilityType = "classroom"
)

func (f FacilityType) Valid() bool {
	switch f {
	case FacilityKitchen, FacilityStoreroom, FacilityDining, FacilityWashroom, FacilityPlayground, FacilityClassroom:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAuditor Role = "auditor"
	RoleOfficer Role = "officer"
	RoleViewer  Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAuditor, RoleOfficer, RoleViewer:
		return true
	}
	return false
}
