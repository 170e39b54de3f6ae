//nolint:revive // types is a standard Go package name pattern
package types

// CandidateProfile is the student-side input to matching.
type CandidateProfile struct {
	ID              string      `json:"id" validate:"required"`
	Skills          []Skill     `json:"skills" validate:"dive"`
	Education       []Education `json:"education,omitempty" validate:"dive"`
	ExperienceYears int         `json:"experience_years" validate:"gte=0"`
	Bio             string      `json:"bio,omitempty"`
	Region          string      `json:"region,omitempty"`
	Preferences     Preferences `json:"preferences"`
}

// Skill is a named skill with a self-assessed proficiency level from 1 to 5.
type Skill struct {
	Name  string `json:"name" validate:"required"`
	Level int    `json:"level" validate:"min=1,max=5"`
}

// Education is a single education record. EndYear is nil while studies are ongoing.
type Education struct {
	Institution string `json:"institution" validate:"required"`
	Degree      string `json:"degree" validate:"required"`
	Field       string `json:"field" validate:"required"`
	StartYear   int    `json:"start_year" validate:"required,min=1900,max=2200"`
	EndYear     *int   `json:"end_year,omitempty" validate:"omitempty,min=1900,max=2200"`
	Grade       string `json:"grade,omitempty"`
}

// Preferences captures what the candidate is looking for. Empty sets mean "no preference",
// which never earns a matching bonus.
type Preferences struct {
	PreferredSectors   []string         `json:"preferred_sectors,omitempty" validate:"dive,sector"`
	PreferredLocations []string         `json:"preferred_locations,omitempty" validate:"dive,required"`
	PreferredTypes     []EngagementType `json:"preferred_types,omitempty" validate:"dive,engagement_type"`
	MinStipend         *float64         `json:"min_stipend,omitempty" validate:"omitempty,gte=0"`
	MaxDistance        *float64         `json:"max_distance,omitempty" validate:"omitempty,gte=0"`
}

// Validate checks the profile's required fields and ranges.
func (c *CandidateProfile) Validate() error {
	if c == nil {
		return &ValidationError{Subject: "candidate", Errors: []FieldError{{Field: "(root)", Message: "candidate is required"}}}
	}
	verr := validateStruct("candidate", c)
	for i, edu := range c.Education {
		if edu.EndYear != nil && *edu.EndYear < edu.StartYear {
			verr = verr.add(fieldPath("education", i, "end_year"), "must not be before start_year")
		}
	}
	return verr.orNil()
}
