package dto

// ImportRow is one CSV row of a bulk lead upload.
type ImportRow struct {
	Name               string
	Email              string
	Phone              string
	Source             string
	OtherSource        string
	SocialMediaChannel string
	ReferrerName       string
	CourseInterest     string
	City               string
}

// CreateLeadRequest converts the row into a create payload.
func (r ImportRow) CreateLeadRequest() CreateLeadRequest {
	req := CreateLeadRequest{
		Name:               r.Name,
		Email:              r.Email,
		PhoneNumbers:       []PhoneNumberInput{{Title: "Mobile", Number: r.Phone}},
		Source:             r.Source,
		OtherSource:        r.OtherSource,
		SocialMediaChannel: r.SocialMediaChannel,
		ReferrerName:       r.ReferrerName,
	}
	if r.CourseInterest != "" {
		course := r.CourseInterest
		req.CourseInterest = &course
	}
	if r.City != "" {
		city := r.City
		req.City = &city
	}
	return req
}
