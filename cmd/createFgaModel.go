// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/canonical/customer-portal/internal/authorization"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/openfga"
	"github.com/canonical/customer-portal/internal/tracing"
)

const StoreName = "customer-portal"

type fgaModelFlags struct {
	apiURL            string
	apiToken          string
	storeID           string
	format            string
	verbose           bool
	configMapResource string
	kubeconfig        string
	printDSL          bool
}

var fgaFlags fgaModelFlags

// createFgaModelCmd represents the createFgaModel command
var createFgaModelCmd = &cobra.Command{
	Use:   "create-fga-model",
	Short: "Creates the portal's openfga model",
	Long:  `Creates the openfga store, when no store id is given, and writes the account role model to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fgaFlags.printDSL {
			fmt.Fprint(cmd.OutOrStdout(), authorization.NewAuthorizationModelProvider("v0").GetDSL())
			return nil
		}

		modelID, storeID, err := createModel(cmd.Context(), fgaFlags)
		if err != nil {
			return err
		}

		if fgaFlags.configMapResource != "" {
			if err := updateConfigMap(cmd.Context(), fgaFlags.kubeconfig, fgaFlags.configMapResource, storeID, modelID); err != nil {
				return fmt.Errorf("failed to update configmap: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "ConfigMap %s updated successfully\n", fgaFlags.configMapResource)
		}

		if fgaFlags.format == "json" {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"store_id": storeID, "model_id": modelID})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created model: %s\n", modelID)
		if fgaFlags.storeID == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Created store: %s\n", storeID)
		}

		return nil
	},
}

func init() {
	f := createFgaModelCmd.Flags()

	f.StringVar(&fgaFlags.apiURL, "fga-api-url", "", "OpenFGA API URL")
	f.StringVar(&fgaFlags.apiToken, "fga-api-token", "", "OpenFGA API token")
	f.StringVar(&fgaFlags.storeID, "fga-store-id", "", "existing OpenFGA store, a new one is created when empty")
	f.StringVarP(&fgaFlags.format, "format", "f", "text", "Output format (text or json)")
	f.BoolVarP(&fgaFlags.verbose, "verbose", "v", false, "log OpenFGA requests")
	f.StringVar(&fgaFlags.configMapResource, "store-k8s-configmap-resource", "", "namespace/name of a configmap to store the ids in")
	f.StringVar(&fgaFlags.kubeconfig, "kubeconfig", "", "path to a kubeconfig, in cluster config is used when empty")
	f.BoolVar(&fgaFlags.printDSL, "print-dsl", false, "print the model DSL and exit")

	rootCmd.AddCommand(createFgaModelCmd)
}

func createModel(ctx context.Context, f fgaModelFlags) (string, string, error) {
	level := "error"
	if f.verbose {
		level = "debug"
	}

	logger := logging.NewLogger(level)
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor(StoreName, logger)

	fgaClient, err := openfga.NewClient(openfga.NewConfig(f.apiURL, f.storeID, f.apiToken, "", f.verbose, tracer, monitor, logger))
	if err != nil {
		return "", "", fmt.Errorf("failed to create openfga client: %w", err)
	}

	storeID := f.storeID
	if storeID == "" {
		if storeID, err = fgaClient.CreateStore(ctx, StoreName); err != nil {
			return "", "", err
		}

		if err := fgaClient.SetStoreID(ctx, storeID); err != nil {
			return "", "", fmt.Errorf("failed to use store %s: %w", storeID, err)
		}
	}

	modelID, err := fgaClient.WriteModel(ctx, authorization.NewAuthorizationModelProvider("v0").GetModel())
	if err != nil {
		return "", "", err
	}

	return modelID, storeID, nil
}

func kubeConfig(path string) (*rest.Config, error) {
	if path != "" {
		return clientcmd.BuildConfigFromFlags("", path)
	}

	if config, err := rest.InClusterConfig(); err == nil {
		return config, nil
	}

	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		clientcmd.NewDefaultClientConfigLoadingRules(),
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
}

// updateConfigMap stores the OpenFGA ids where the portal deployment reads
// its environment from, creating the configmap when missing.
func updateConfigMap(ctx context.Context, kubeconfigPath, resource, storeID, modelID string) error {
	namespace, name, ok := strings.Cut(resource, "/")
	if !ok || namespace == "" || name == "" {
		return fmt.Errorf("invalid configmap resource format: %s, expected namespace/name", resource)
	}

	config, err := kubeConfig(kubeconfigPath)
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return upsertConfigMap(ctx, clientset, namespace, name, map[string]string{
		"OPENFGA_STORE_ID":               storeID,
		"OPENFGA_AUTHORIZATION_MODEL_ID": modelID,
		"AUTHORIZATION_ENABLED":          "true",
	})
}

// upsertConfigMap merges data into the configmap, keeping unrelated keys.
func upsertConfigMap(ctx context.Context, clientset kubernetes.Interface, namespace, name string, data map[string]string) error {
	configMaps := clientset.CoreV1().ConfigMaps(namespace)

	cm, err := configMaps.Get(ctx, name, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
			Data:       data,
		}

		if _, err := configMaps.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create configmap %s/%s: %w", namespace, name, err)
		}

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get configmap %s/%s: %w", namespace, name, err)
	}

	if cm.Data == nil {
		cm.Data = make(map[string]string)
	}

	for k, v := range data {
		cm.Data[k] = v
	}

	if _, err := configMaps.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update configmap %s/%s: %w", namespace, name, err)
	}

	return nil
}
