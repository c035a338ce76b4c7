// Command createadmin creates an admin account, or promotes an existing
// account to admin.
//
//	createadmin -email root@example.com -name Root -password '...'
//
// The password may also be given through ADMIN_PASSWORD.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"marketplace_backend/internal/app/di"
	adminusecase "marketplace_backend/internal/feature/admin/usecase"
	"marketplace_backend/internal/platform/config"
	platformdb "marketplace_backend/internal/platform/db"
	"marketplace_backend/internal/platform/password"
)

func main() {
	email := flag.String("email", "", "admin email (required)")
	pass := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password, at least 6 characters (new accounts only)")
	name := flag.String("name", "", "full name (new accounts only)")
	phone := flag.String("phone", "", "phone number")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*email, *pass, *name, *phone); err != nil {
		slog.Error("createadmin failed", "error", err)
		os.Exit(1)
	}
}

func run(email, pass, name, phone string) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	db, err := platformdb.ConnectWithRetry(platformdb.BuildDSN(cfg.DB), cfg.DBConnectTimeout, platformdb.OpenPostgres)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.RunMigrations {
		if err := platformdb.Migrate(ctx, sqlDB, "postgres"); err != nil {
			return err
		}
	}

	uc := adminusecase.NewAdminUsecase(di.NewUserRepository(db, nil, 0, nil), password.NewBcryptHasher(bcrypt.DefaultCost))
	user, created, err := uc.ProvisionAdmin(ctx, adminusecase.ProvisionInput{
		Email:    email,
		Password: pass,
		FullName: name,
		Phone:    phone,
	})
	if err != nil {
		return err
	}

	if created {
		fmt.Printf("created admin %s (%s)\n", user.Email, user.ID)
	} else {
		fmt.Printf("%s (%s) is an admin\n", user.Email, user.ID)
	}
	return nil
}
