package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cyp0633/librecur/appointment"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
	"github.com/cyp0633/librecur/storage/memory"
	"github.com/cyp0633/librecur/storage/sqlite"
	"github.com/emersion/go-ical"
)

const (
	// Sample series used when no rule is given
	defaultRule = "t|2|i|1|a|42|s|1704067200000|o|10|"
	timeLayout  = "2006-01-02T15:04"
)

func main() {
	var (
		rule       = flag.String("rule", defaultRule, "recurrence string to expand")
		start      = flag.String("start", "2024-01-01T09:00", "start of the first instance, local time")
		duration   = flag.Duration("duration", time.Hour, "length of every occurrence")
		zone       = flag.String("tz", "Europe/Berlin", "timezone of the series")
		from       = flag.String("from", "", "only print occurrences from this local time on")
		until      = flag.String("until", "", "only print occurrences before this local time")
		configPath = flag.String("config", "", "YAML engine configuration")
		dbPath     = flag.String("db", "", "SQLite database file; in-memory store when empty")
		deleteDate = flag.String("delete", "", "delete the occurrence on this date (2006-01-02) before printing")
		printICS   = flag.Bool("ics", false, "print the series as VEVENT")
	)
	flag.Parse()

	config := recurrence.DefaultConfig
	if *configPath != "" {
		var err error
		if config, err = recurrence.LoadConfig(*configPath); err != nil {
			log.Fatalf("Loading config failed: %v", err)
		}
	}
	engine := recurrence.NewEngineWithConfig(config)

	loc, err := time.LoadLocation(*zone)
	if err != nil {
		log.Fatalf("Unknown timezone %s: %v", *zone, err)
	}
	first, err := time.ParseInLocation(timeLayout, *start, loc)
	if err != nil {
		log.Fatalf("Invalid start: %v", err)
	}
	r, err := engine.Decode(*rule)
	if err != nil {
		log.Fatalf("Invalid rule: %v", err)
	}

	store, closeStore := setupStore(*dbPath)
	defer closeStore()
	svc := appointment.NewService(engine, store)

	ctx := context.Background()
	master, err := svc.Save(ctx, appointment.Appointment{
		Title:     "Example series",
		Organizer: "alice",
		ShownAs:   appointment.Reserved,
		Start:     first,
		End:       first.Add(*duration),
		TimeZone:  *zone,
		Rule:      r,
		Participants: []appointment.Participant{
			{ID: "alice", Type: appointment.UserParticipant, Confirmation: appointment.ConfirmAccepted},
			{ID: "bob", Type: appointment.UserParticipant},
		},
	})
	if err != nil {
		log.Fatalf("Storing series failed: %v", err)
	}
	log.Printf("Stored series %s with rule %q", master.ID, master.Rule.String())

	if *deleteDate != "" {
		d, err := time.Parse(time.DateOnly, *deleteDate)
		if err != nil {
			log.Fatalf("Invalid delete date: %v", err)
		}
		if master, err = svc.DeleteOccurrence(ctx, master.ID, d); err != nil {
			log.Fatalf("Deleting occurrence failed: %v", err)
		}
	}

	rangeStart := parseOptional(*from, loc)
	rangeEnd := parseOptional(*until, loc)
	instances, err := svc.Expand(ctx, master.ID, rangeStart, rangeEnd)
	if err != nil {
		log.Fatalf("Expanding series failed: %v", err)
	}
	for _, inst := range instances {
		fmt.Printf("%3d  %s  %s\n", inst.RecurrencePosition,
			inst.Start.In(loc).Format("Mon 2006-01-02 15:04 MST"),
			inst.End.In(loc).Format("15:04"))
	}

	if last, err := engine.LastOccurrence(master.Series()); err == nil {
		log.Printf("Series ends on %s", last.Date.Format(time.DateOnly))
	}

	if *printICS {
		printEvent(engine, master)
	}
}

// setupStore opens the SQLite database at path, or an in-memory store
func setupStore(path string) (storage.Store, func()) {
	if path == "" {
		return memory.New(), func() {}
	}
	db, err := sqlite.Open(path)
	if err != nil {
		log.Fatalf("Opening database failed: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("Migrating database failed: %v", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.Printf("Closing database failed: %v", err)
		}
	}
}

func parseOptional(value string, loc *time.Location) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(timeLayout, value, loc)
	if err != nil {
		log.Fatalf("Invalid time %q: %v", value, err)
	}
	return t
}

// printEvent writes the series as a VEVENT inside a VCALENDAR
func printEvent(engine *recurrence.Engine, a appointment.Appointment) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, "-//librecur//Example//EN")
	cal.Props.SetText(ical.PropVersion, "2.0")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, a.ID)
	event.Props.SetText(ical.PropSummary, a.Title)
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	if err := engine.ApplyToComponent(event.Component, a.Series()); err != nil {
		log.Fatalf("Converting series failed: %v", err)
	}
	cal.Children = append(cal.Children, event.Component)

	if err := ical.NewEncoder(os.Stdout).Encode(cal); err != nil {
		log.Fatalf("Encoding calendar failed: %v", err)
	}
}
