package types

// TailoredResume is the rewritten resume body produced for one job description.
type TailoredResume struct {
	Text string `json:"text"`
}

// ResumeArtifact is a persisted rendering of a TailoredResume.
type ResumeArtifact struct {
	Path string `json:"path"`
	// MirrorURL is set when a remote copy was uploaded.
	MirrorURL string `json:"mirror_url,omitempty"`
}

// ApplicantProfile holds the values injected into application forms.
type ApplicantProfile struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	PostCode  string `json:"post_code,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty" validate:"omitempty,url"`
	GitHub    string `json:"github,omitempty" validate:"omitempty,url"`
	Portfolio string `json:"portfolio,omitempty" validate:"omitempty,url"`
}

// FullName joins first and last name.
func (p ApplicantProfile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
