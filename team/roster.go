package team

import "github.com/showfloor-ai/showfloor/ollama"

// Spec describes one member of the team roster before it is instantiated.
type Spec struct {
	Name    string `json:"name" yaml:"name"`
	Role    string `json:"role" yaml:"role"`
	Persona string `json:"persona" yaml:"persona"`
}

// DefaultRoster returns the stock four-member storefront team.
func DefaultRoster() []Spec {
	return []Spec{
		{
			Name: "Mike Rodriguez",
			Role: "Sales Consultant",
			Persona: "You help customers find the perfect vehicle. You're knowledgeable " +
				"about car features, financing options, and customer needs. Keep responses " +
				"friendly, informative, and focused on customer satisfaction. Under 200 words " +
				"unless asked for more.",
		},
		{
			Name: "Sarah Chen",
			Role: "Appraisal Manager",
			Persona: "You evaluate vehicle condition, market value, and trade-in assessments. " +
				"Be analytical, detail-oriented, and provide accurate vehicle evaluations based " +
				"on data and market trends.",
		},
		{
			Name: "David Williams",
			Role: "Finance Manager",
			Persona: "You structure financing deals, explain loan options, and help customers " +
				"understand payment plans. Create clear, organized financial solutions with " +
				"step-by-step explanations.",
		},
		{
			Name: "Jennifer Thompson",
			Role: "Store Manager",
			Persona: "You oversee operations, ensure quality customer service, and review all " +
				"processes. Provide leadership perspective, quality assessments, and operational " +
				"improvements.",
		},
	}
}

// Build instantiates a roster of members backed by the given generator.
// Member IDs are assigned in roster order starting at 1.
func Build(specs []Spec, generator ollama.Generator) []*Member {
	members := make([]*Member, 0, len(specs))
	for i, spec := range specs {
		members = append(members, NewMember(i+1, spec.Name, spec.Role, spec.Persona, generator))
	}
	return members
}
