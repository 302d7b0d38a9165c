package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/him-waste/internal/calendar"
	"github.com/pfrederiksen/him-waste/internal/waste"
)

func main() {
	// Sample schedule two to four weeks out
	today := waste.Day(time.Now())
	s := waste.NewSchedule("12345")
	s.Set(waste.CategoryRest, today.AddDate(0, 0, 14))
	s.Set(waste.CategoryFood, today.AddDate(0, 0, 7))
	s.Set(waste.CategoryPaper, today.AddDate(0, 0, 14))
	s.Set(waste.CategoryPlastic, today.AddDate(0, 0, 21))
	s.Set(waste.CategoryGlassMetal, today.AddDate(0, 0, 28))

	icsContent := calendar.GenerateICS(s, calendar.Options{
		AlarmHours: 6,
		SourceURL:  "https://him.as/tommekalender/?eiendomId=12345",
	})

	// Owner read/write only
	filename := "test-him-waste.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or subscribe to /calendar.ics of a running 'him-waste serve'")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
