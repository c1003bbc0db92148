package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/cron"
	"github.com/nsets/erp-backend/internal/queries"
	"github.com/nsets/erp-backend/internal/users"
	"github.com/nsets/erp-backend/pkg/redis"
	"github.com/nsets/erp-backend/pkg/security"
	"github.com/nsets/erp-backend/pkg/storage/local"
	"github.com/urfave/cli/v3"
)

const operatorName = "erpctl"

func seedAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-admin",
		Usage: "create the first administrator when the users table is empty",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Usage: "overrides ERP_SEED_ADMIN_USERNAME"},
			&cli.StringFlag{Name: "password", Usage: "overrides ERP_SEED_ADMIN_PASSWORD; generated when empty"},
			&cli.StringFlag{Name: "full-name", Usage: "overrides ERP_SEED_ADMIN_FULL_NAME"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			seed := e.cfg.SeedAdmin
			if v := c.String("username"); v != "" {
				seed.Username = v
			}
			if v := c.String("password"); v != "" {
				seed.Password = v
			}
			if v := c.String("full-name"); v != "" {
				seed.FullName = v
			}

			svc, _, err := userService(e)
			if err != nil {
				return err
			}
			result, err := svc.EnsureSeedAdmin(ctx, seed)
			if err != nil {
				return err
			}
			if !result.Created {
				fmt.Println("users already exist; nothing to do")
				return nil
			}
			fmt.Printf("created admin %q\n", result.Username)
			if result.GeneratedPassword != "" {
				fmt.Printf("generated password: %s\n", result.GeneratedPassword)
			}
			return nil
		},
	}
}

func resetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-password",
		Usage: "set a new password for a user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Usage: "generated when empty"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			svc, repo, err := userService(e)
			if err != nil {
				return err
			}
			user, err := repo.FindByUsername(ctx, c.String("username"))
			if err != nil {
				return fmt.Errorf("find user %q: %w", c.String("username"), err)
			}

			password := c.String("password")
			generated := password == ""
			if generated {
				if password, err = security.GenerateTempPassword(16); err != nil {
					return err
				}
			}
			if err := svc.SetPassword(ctx, access.System(operatorName), user.ID, password); err != nil {
				return err
			}
			fmt.Printf("password updated for %q\n", user.Username)
			if generated {
				fmt.Printf("generated password: %s\n", password)
			}
			return nil
		},
	}
}

func purgeNowCommand() *cli.Command {
	return &cli.Command{
		Name:  "purge-now",
		Usage: "run the soft-deleted query retention sweep once, under the cron lock",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Usage: "overrides ERP_RETENTION_QUERY_DAYS"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			days := e.cfg.Retention.QueryDays
			if v := c.Int("days"); v > 0 {
				days = v
			}
			attachments, err := local.New(e.cfg.Attachments, e.logg)
			if err != nil {
				return err
			}
			redisClient, err := redis.New(ctx, e.cfg.Redis, e.logg)
			if err != nil {
				return fmt.Errorf("open redis: %w", err)
			}
			defer redisClient.Close()

			job, err := cron.NewQueryRetentionJob(cron.QueryRetentionJobParams{
				Logger:      e.logg,
				DB:          e.db,
				Repository:  queries.NewRepository(e.db.DB()),
				Attachments: attachments,
				Retention:   days,
			})
			if err != nil {
				return err
			}
			registry, err := cron.NewRegistry(job)
			if err != nil {
				return err
			}
			lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.LockName(e.cfg.App.Env)), 0)
			if err != nil {
				return err
			}
			svc, err := cron.NewService(cron.ServiceParams{Logger: e.logg, Registry: registry, Lock: lock})
			if err != nil {
				return err
			}

			err = svc.RunNamed(ctx, cron.QueryRetentionJobName)
			if errors.Is(err, cron.ErrLocked) {
				return errors.New("a cron worker is sweeping right now; try again later")
			}
			return err
		},
	}
}

func userService(e *env) (users.Service, users.Repository, error) {
	repo := users.NewRepository(e.db.DB())
	svc, err := users.NewService(users.ServiceParams{
		Repository: repo,
		Tx:         e.db,
		Password:   e.cfg.Password,
		Activity:   e.activity,
		Logger:     e.logg,
	})
	return svc, repo, err
}
