package main

import (
	"errors"
	"time"

	"github.com/school-food-safety/backend/internal/models"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type seedUser struct {
	username string
	password string
	fullName string
	role     models.Role
}

// Demo accounts. Change the passwords before exposing the portal.
var defaultUsers = []seedUser{
	{"admin", "admin123", "System Administrator", models.RoleAdmin},
	{"auditor1", "audit123", "District Food Safety Auditor", models.RoleAuditor},
	{"officer1", "officer123", "Block Education Officer", models.RoleOfficer},
	{"viewer1", "view123", "Read Only Viewer", models.RoleViewer},
}

var seedUsersCommand = &cli.Command{
	Name:  "seed-users",
	Usage: "create the default admin, auditor, officer and viewer accounts",
	Action: func(cCtx *cli.Context) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(&models.User{}); err != nil {
			return err
		}

		auth := services.NewAuthService(db, cfg)
		for _, u := range defaultUsers {
			user := &models.User{FullName: u.fullName, Role: u.role, IsActive: true, Username: u.username}
			err := auth.CreateUser(cCtx.Context, user, u.password)
			switch {
			case errors.Is(err, services.ErrDuplicateUsername):
				log.WithField("username", u.username).Info("user already exists")
			case err != nil:
				return err
			default:
				log.WithFields(logrus.Fields{"username": u.username, "role": u.role}).Info("user created")
			}
		}
		return nil
	},
}

type demoSchool struct {
	school      models.School
	inspections []models.Inspection
}

func demoData(now time.Time) []demoSchool {
	day := func(n int) time.Time { return now.AddDate(0, 0, -n).Truncate(24 * time.Hour) }

	return []demoSchool{
		{
			school: models.School{
				Name:          "Government Higher Primary School, Kuvempunagar",
				Type:          models.SchoolTypeGovernment,
				Location:      "Mysuru",
				Phone:         "0821-2541122",
				Email:         "ghps.kuvempunagar@example.org",
				LicenseNumber: "KGS-001",
				Category:      models.CategoryHigherPrimary,
				Level:         models.LevelDistrict,
				StudentCount:  412,
				PrincipalName: "Smt. Latha Kumari",
				Address:       models.Address{City: "Mysuru", State: "Karnataka", Pincode: "570023"},
			},
			inspections: []models.Inspection{
				{
					InspectorName:   "Ravi Shankar",
					InspectionDate:  day(40),
					InspectionType:  models.InspectionRoutine,
					OverallRating:   models.RatingBPlus,
					Findings:        "Kitchen clean; Rice stored off the floor",
					Recommendations: "Label dry ration bins with receipt dates",
				},
				{
					InspectorName:  "Ravi Shankar",
					InspectionDate: day(5),
					InspectionType: models.InspectionRoutine,
					OverallRating:  models.RatingA,
					Findings:       "Kitchen clean; Food stored properly; Staff wearing head covers",
				},
			},
		},
		{
			school: models.School{
				Name:          "Government High School, Hebbal",
				Type:          models.SchoolTypeGovernment,
				Location:      "Bengaluru",
				Phone:         "080-23331456",
				Email:         "ghs.hebbal@example.org",
				LicenseNumber: "KGS-014",
				Category:      models.CategoryHighSchool,
				Level:         models.LevelState,
				StudentCount:  780,
				Address:       models.Address{City: "Bengaluru", State: "Karnataka", Pincode: "560024"},
			},
			inspections: []models.Inspection{
				{
					InspectorName:    "Meena Patil",
					InspectionDate:   day(12),
					InspectionType:   models.InspectionComplaint,
					OverallRating:    models.RatingC,
					Findings:         "Pest droppings near storeroom",
					Recommendations:  "Pest control within one week",
					FollowUpRequired: true,
					Status:           models.InspectionFollowUpRequired,
					ViolationsList: models.ViolationDetails{
						{Category: "Storage", Description: "Grain sacks stored on floor", Severity: models.SeverityMedium, CorrectionRequired: true},
						{Category: "Pest Control", Description: "Evidence of rodents", Severity: models.SeverityHigh, CorrectionRequired: true},
					},
				},
			},
		},
		{
			school: models.School{
				Name:          "Aided Primary School, Dharwad",
				Type:          models.SchoolTypeAided,
				Owner:         "Sri Basaveshwara Vidya Samsthe",
				Location:      "Dharwad",
				Phone:         "0836-2447890",
				Email:         "aps.dharwad@example.org",
				LicenseNumber: "KAS-203",
				Category:      models.CategoryPrimary,
				Level:         models.LevelTaluk,
				StudentCount:  190,
			},
		},
	}
}

var seedDemoCommand = &cli.Command{
	Name:  "seed-demo",
	Usage: "load sample schools and inspections",
	Action: func(cCtx *cli.Context) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(&models.School{}, &models.Inspection{}); err != nil {
			return err
		}

		ctx := cCtx.Context
		schools := services.NewSchoolService(db, log)
		inspections := services.NewInspectionService(db, log)

		for _, d := range demoData(time.Now().UTC()) {
			school := d.school
			created, err := schools.Create(ctx, &school)
			if errors.Is(err, services.ErrDuplicateLicense) {
				log.WithField("license_number", school.LicenseNumber).Info("school already seeded")
				continue
			}
			if err != nil {
				return err
			}

			for _, in := range d.inspections {
				in.SchoolID = created.ID
				_, warning, err := inspections.Create(ctx, &in)
				if err != nil {
					return err
				}
				if warning != nil {
					log.WithError(warning).Warn("school not updated from demo inspection")
				}
			}
			log.WithFields(logrus.Fields{
				"school":      created.Name,
				"inspections": len(d.inspections),
			}).Info("demo school seeded")
		}
		return nil
	},
}
