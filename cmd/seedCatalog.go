// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/canonical/organization-service/internal/db"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/pkg/audit"
	"github.com/canonical/organization-service/pkg/rbac"
)

const defaultCatalogKey = "catalog.json"

// seedCatalogCmd upserts the role and permission catalog
var seedCatalogCmd = &cobra.Command{
	Use:   "seed-catalog",
	Short: "Upsert roles, permissions and role permission sets",
	Long: `Upsert roles, permissions and role permission sets from a JSON catalog.
The catalog is read from --file or from a key of a Kubernetes ConfigMap.
Each role's permission list replaces the permissions it currently grants.`,
	Run: func(cmd *cobra.Command, args []string) {
		dsn, _ := cmd.Flags().GetString("dsn")
		file, _ := cmd.Flags().GetString("file")
		configMapResource, _ := cmd.Flags().GetString("k8s-configmap")
		key, _ := cmd.Flags().GetString("key")
		kubeconfigPath, _ := cmd.Flags().GetString("kubeconfig")
		format, _ := cmd.Flags().GetString("format")

		if dsn == "" {
			dsn = os.Getenv("DSN")
		}

		if (file == "") == (configMapResource == "") {
			cmd.PrintErrln("exactly one of --file or --k8s-configmap is required")
			os.Exit(1)
		}

		var (
			data []byte
			err  error
		)
		if file != "" {
			data, err = os.ReadFile(file)
		} else {
			data, err = readConfigMapKey(cmd.Context(), kubeconfigPath, configMapResource, key)
		}
		if err != nil {
			cmd.PrintErrln(fmt.Errorf("failed to read catalog: %w", err))
			os.Exit(1)
		}

		result, err := seedCatalog(cmd.Context(), dsn, data)
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		if format == "json" {
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(result); err != nil {
				cmd.PrintErrln(fmt.Errorf("failed to encode output: %v", err))
				os.Exit(1)
			}
			return
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Catalog applied: %d permissions, %d roles\n", result.Permissions, result.Roles)
	},
}

func init() {
	rootCmd.AddCommand(seedCatalogCmd)

	seedCatalogCmd.Flags().String("dsn", "", "PostgreSQL DSN connection string, defaults to the DSN environment variable")
	seedCatalogCmd.Flags().String("file", "", "Path to the JSON catalog")
	seedCatalogCmd.Flags().String("k8s-configmap", "", "ConfigMap holding the catalog, format: namespace/name")
	seedCatalogCmd.Flags().String("key", defaultCatalogKey, "ConfigMap key holding the catalog")
	seedCatalogCmd.Flags().String("kubeconfig", "", "Path to the kubeconfig file (optional, defaults to in-cluster config)")
	seedCatalogCmd.Flags().String("format", "text", "Output format (text or json)")
}

func seedCatalog(ctx context.Context, dsn string, data []byte) (*rbac.CatalogResult, error) {
	catalog, err := rbac.ParseCatalog(data)
	if err != nil {
		return nil, err
	}

	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("", logger)

	dbClient, err := db.NewDBClient(db.Config{DSN: dsn, ApplicationName: "organization-service-seed-catalog", MaxConns: 2, MinConns: 1}, tracer, monitor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}
	defer dbClient.Close()

	s := storage.NewStorage(dbClient, tracer, monitor, logger)
	svc := rbac.NewService(s, audit.NewService(s, tracer, monitor, logger), tracer, monitor, logger)

	return svc.ApplyCatalog(ctx, "", catalog)
}

func readConfigMapKey(ctx context.Context, kubeconfigPath, configMapResource, key string) ([]byte, error) {
	parts := strings.Split(configMapResource, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid configmap resource format: %s, expected namespace/name", configMapResource)
	}
	namespace, name := parts[0], parts[1]

	var config *rest.Config
	var err error

	if kubeconfigPath != "" {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	} else {
		config, err = rest.InClusterConfig()
		if err != nil {
			loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
			kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{})
			config, err = kubeConfig.ClientConfig()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	cm, err := clientset.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get configmap %s: %w", configMapResource, err)
	}

	return catalogFromConfigMap(cm, key)
}

func catalogFromConfigMap(cm *corev1.ConfigMap, key string) ([]byte, error) {
	if v, ok := cm.Data[key]; ok {
		return []byte(v), nil
	}
	if v, ok := cm.BinaryData[key]; ok {
		return v, nil
	}

	return nil, fmt.Errorf("configmap %s/%s has no key %q", cm.Namespace, cm.Name, key)
}
