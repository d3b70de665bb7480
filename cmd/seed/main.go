package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	clinicID := uuid.New()
	log.Printf("seeding clinic %s", clinicID)

	staffIDs, roomIDs, err := seedResources(context.Background(), pool, clinicID)
	if err != nil {
		log.Fatalf("seed resources: %v", err)
	}

	menuIDs, err := seedMenus(context.Background(), pool, clinicID, append(append([]uuid.UUID{}, staffIDs...), roomIDs...))
	if err != nil {
		log.Fatalf("seed menus: %v", err)
	}

	if err := seedAppointments(context.Background(), pool, clinicID, roomIDs, menuIDs, 400); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	if err := seedStaffing(context.Background(), pool, clinicID, staffIDs); err != nil {
		log.Fatalf("seed staffing: %v", err)
	}

	log.Println("seed complete")
}

func weekdayHours() []byte {
	wh := catalog.WorkingHours{}
	for d := time.Monday; d <= time.Friday; d++ {
		wh[d] = catalog.DayWindow{StartMinute: 9 * 60, EndMinute: 18 * 60}
	}
	raw, _ := json.Marshal(wh)
	return raw
}

func seedResources(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID) (staffIDs, roomIDs []uuid.UUID, err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	hours := weekdayHours()

	insert := func(name string, typ catalog.ResourceType, maxConcurrent int) (uuid.UUID, error) {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO resources (id, clinic_id, name, type, max_concurrent, working_hours, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, now(), now())
		`, id, clinicID, name, string(typ), maxConcurrent, hours)
		return id, err
	}

	for i := 0; i < 8; i++ {
		id, err := insert(gofakeit.Name(), catalog.ResourceStaff, 1)
		if err != nil {
			return nil, nil, err
		}
		staffIDs = append(staffIDs, id)
	}

	for i := 0; i < 4; i++ {
		id, err := insert(gofakeit.Word()+" room", catalog.ResourceRoom, 1)
		if err != nil {
			return nil, nil, err
		}
		roomIDs = append(roomIDs, id)
	}

	// Open-plan beds handle a few appointments at once.
	for i := 0; i < 2; i++ {
		id, err := insert(gofakeit.Word()+" bed", catalog.ResourceBed, 3)
		if err != nil {
			return nil, nil, err
		}
		roomIDs = append(roomIDs, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	log.Printf("resources seeded: %d staff, %d rooms/beds", len(staffIDs), len(roomIDs))
	return staffIDs, roomIDs, nil
}

func seedMenus(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, resourceIDs []uuid.UUID) ([]uuid.UUID, error) {
	menus := []struct {
		name     string
		duration int
		price    int
	}{
		{"Initial consultation", 30, 5000},
		{"Follow-up visit", 30, 3000},
		{"Physiotherapy session", 60, 8000},
		{"Full checkup", 90, 15000},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ids []uuid.UUID
	for _, m := range menus {
		id := uuid.New()
		options, _ := json.Marshal([]catalog.Option{{Name: "Extended time", Price: 2000}})
		_, err := tx.Exec(ctx, `
			INSERT INTO menus (id, clinic_id, name, duration_minutes, price, options, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, now(), now())
		`, id, clinicID, m.name, m.duration, m.price, options)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)

		for _, rid := range resourceIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO resource_menus (resource_id, menu_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, rid, id); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Printf("menus seeded: %d", len(ids))
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, resourceIDs, menuIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	statuses := []string{"confirmed", "confirmed", "confirmed", "completed", "cancelled"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	base := time.Now().Truncate(time.Hour).Add(-14 * 24 * time.Hour)

	for i := 0; i < count; i++ {
		id := uuid.New()
		resourceID := resourceIDs[gofakeit.Number(0, len(resourceIDs)-1)]
		menuID := menuIDs[gofakeit.Number(0, len(menuIDs)-1)]

		day := gofakeit.Number(0, 27)
		hour := gofakeit.Number(9, 17)
		start := base.Add(time.Duration(day)*24*time.Hour + time.Duration(hour)*time.Hour)
		end := start.Add(time.Duration(gofakeit.Number(1, 2)) * 30 * time.Minute)
		status := statuses[gofakeit.Number(0, len(statuses)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, clinic_id, resource_id, menu_id, start_time, end_time, status, customer_ref, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		`, id, clinicID, resourceID, menuID, start, end, status, gofakeit.Email())
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}

func seedStaffing(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, staffIDs []uuid.UUID) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	weekStart := time.Now().Truncate(24 * time.Hour)

	shifts := 0
	for _, staffID := range staffIDs {
		for day := 0; day < 7; day++ {
			if gofakeit.Number(0, 3) == 0 {
				continue // day off
			}
			start := weekStart.Add(time.Duration(day)*24*time.Hour + 9*time.Hour)
			end := start.Add(8 * time.Hour)
			_, err := tx.Exec(ctx, `
				INSERT INTO staff_shifts (id, clinic_id, staff_resource_id, start_time, end_time, status, notes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, 'confirmed', '', now(), now())
			`, uuid.New(), clinicID, staffID, start, end)
			if err != nil {
				return err
			}
			shifts++
		}

		// Every staff member dislikes one weekday.
		weekday := gofakeit.Number(0, 6)
		_, err := tx.Exec(ctx, `
			INSERT INTO staff_preferences (id, clinic_id, staff_resource_id, preference_type, priority, weekday, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, 'day_off', $4, $5, TRUE, now(), now())
		`, uuid.New(), clinicID, staffID, gofakeit.Number(1, 5), weekday)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("staffing seeded: %d shifts, %d preferences", shifts, len(staffIDs))
	return nil
}
