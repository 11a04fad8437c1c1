package schema

// Builtin returns the registry of built-in HR tasks.
func Builtin() *Registry {
	r, err := NewRegistry(
		Task{
			Name: "request_time_off",
			Slots: []Slot{
				{Name: "employee_name", Prompt: "What is your name?"},
				{Name: "start_date", Prompt: "When would you like to start your time off?"},
				{Name: "end_date", Prompt: "When would you like to return?"},
				{Name: "time_off_type", Prompt: "What type of time off is this? (e.g., vacation, sick, personal)"},
				{Name: "reason", Prompt: "What is the reason for this time off request?"},
				{Name: "notify_manager", Prompt: "Should we notify your manager? (yes/no)"},
			},
		},
		Task{
			Name: "schedule_meeting",
			Slots: []Slot{
				{Name: "organizer_name", Prompt: "Who is organizing this meeting?"},
				{Name: "date", Prompt: "What date should the meeting be scheduled?"},
				{Name: "start_time", Prompt: "What time should the meeting start?"},
				{Name: "end_time", Prompt: "What time should the meeting end?"},
				{Name: "participants", Prompt: "Who should attend this meeting?"},
				{Name: "meeting_platform", Prompt: "Which platform should be used? (e.g., Zoom, Teams, Google Meet)"},
				{Name: "agenda", Prompt: "What is the agenda for this meeting?"},
			},
		},
		Task{
			Name: "submit_it_ticket",
			Slots: []Slot{
				{Name: "requester_name", Prompt: "What is your name?"},
				{Name: "issue_category", Prompt: "What category does this issue fall under? (e.g., hardware, software, network)"},
				{Name: "issue_description", Prompt: "Please describe the issue in detail."},
				{Name: "urgency", Prompt: "What is the urgency level? (low, medium, high, critical)"},
				{Name: "affected_system", Prompt: "Which system is affected?"},
				{Name: "contact_email", Prompt: "What is your contact email?"},
			},
		},
		Task{
			Name: "file_medical_claim",
			Slots: []Slot{
				{Name: "employee_name", Prompt: "What is your name?"},
				{Name: "incident_date", Prompt: "When did the medical incident occur?"},
				{Name: "provider_name", Prompt: "What is the name of the healthcare provider?"},
				{Name: "claim_amount", Prompt: "What is the claim amount?"},
				{Name: "claim_type", Prompt: "What type of claim is this? (e.g., doctor visit, prescription, procedure)"},
				{Name: "description", Prompt: "Please describe the medical claim."},
			},
		},
	)
	if err != nil {
		// The builtin set is validated by tests; a failure here is a programming error.
		panic(err)
	}
	return r
}
