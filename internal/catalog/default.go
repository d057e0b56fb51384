package catalog

// Default returns the daily hospitality checklist.
func Default() Catalog {
	return Catalog{Sections: []Section{
		{
			Title: "Morning Tasks",
			Icon:  "🌅",
			Tasks: []Task{
				{
					ID:       "morning-1",
					Title:    "8:00 AM: Send check-out (CO) instructions to guests leaving the next day.",
					Monster:  "👾",
					Treasure: "🪙",
					Weapon:   WeaponCannon,
				},
				{
					ID:       "morning-2",
					Title:    "Review the calendar for arrivals today and tomorrow.",
					Monster:  "🐉",
					Treasure: "💎",
					Weapon:   WeaponArrow,
					Subtasks: []Subtask{
						{ID: "morning-2-1", Title: "Check for special requests (crib, bed, etc)."},
						{ID: "morning-2-2", Title: "Notify any special requests in the group chat."},
					},
				},
				{
					ID:       "morning-3",
					Title:    "Review special requests for current stays.",
					Monster:  "🦂",
					Treasure: "🗝️",
					Weapon:   WeaponLaser,
					Subtasks: []Subtask{
						{ID: "morning-3-1", Title: "Confirm arrangements (e.g., fruit delivery, extras, follow-ups, cleaning, food delivery)."},
					},
				},
			},
		},
		{
			Title: "Arrivals & Departures",
			Icon:  "🧳",
			Tasks: []Task{
				{
					ID:       "arrival-1",
					Title:    "Schedule and/or send check-in (CI) OK messages to today's arrivals at their confirmed check-in time.",
					Monster:  "🧟",
					Treasure: "🪙",
					Weapon:   WeaponRocket,
				},
				{
					ID:       "arrival-2",
					Title:    "Schedule and/or send 5-star review messages after the guests' confirmed check-out time for those checking out today.",
					Monster:  "🦑",
					Treasure: "🏆",
					Weapon:   WeaponMagic,
				},
			},
		},
		{
			Title: "Reservations Follow-Up",
			Icon:  "📜",
			Tasks: []Task{
				{ID: "reserv-1", Title: "Review current month reservations.", Monster: "🪨", Treasure: "💰", Weapon: WeaponCannon},
				{ID: "reserv-2", Title: "Review future month reservations.", Monster: "🐲", Treasure: "💎", Weapon: WeaponArrow},
				{ID: "reserv-3", Title: "Follow up to complete missing checkmarks and get reservations marked in yellow.", Monster: "🧠", Treasure: "🗝️", Weapon: WeaponLaser},
			},
		},
		{
			Title: "Afternoon Tasks",
			Icon:  "🌇",
			Tasks: []Task{
				{ID: "after-1", Title: "Send to the group chat the next day's check-in and check-out times for each villa.", Monster: "🦅", Treasure: "🪙", Weapon: WeaponRocket},
			},
		},
		{
			Title: "Notes / Important Observations",
			Icon:  "📝",
			Tasks: []Task{
				{ID: "notes-1", Title: "Anything relevant from today: guest feedback, issues, reminders, follow-ups", Type: TypeNote, Monster: "🧩", Treasure: "📦", Weapon: WeaponMagic},
			},
		},
		{
			Title: "Pending for Next Day",
			Icon:  "⏭️",
			Tasks: []Task{
				{ID: "pending-1", Title: "Tasks not completed today or items to follow up tomorrow", Type: TypeNote, Monster: "🛡️", Treasure: "🎒", Weapon: WeaponCannon},
			},
		},
	}}
}
