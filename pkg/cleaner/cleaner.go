// Package cleaner releases resources a failed trial left behind.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/opscart/hardware-explorer/pkg/workspace"
)

// Cleaner releases whatever a trial recorded in its workspace
type Cleaner interface {
	Clean(ctx context.Context, ws workspace.Trial) error
}

// NopCleaner is used when trials provision nothing the explorer can see
type NopCleaner struct{}

func (NopCleaner) Clean(context.Context, workspace.Trial) error { return nil }

// KubernetesCleaner deletes the namespaces a trial provisioned
type KubernetesCleaner struct {
	clientset kubernetes.Interface
	logger    *zap.Logger
}

// NewKubernetesCleaner connects using kubeconfig, or ~/.kube/config when empty
func NewKubernetesCleaner(kubeconfig string, logger *zap.Logger) (*KubernetesCleaner, error) {
	if kubeconfig == "" {
		if home := homedir.HomeDir(); home != "" {
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return NewKubernetesCleanerForClient(clientset, logger), nil
}

func NewKubernetesCleanerForClient(clientset kubernetes.Interface, logger *zap.Logger) *KubernetesCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KubernetesCleaner{clientset: clientset, logger: logger}
}

// Clean deletes every recorded namespace. Namespaces already gone are not an
// error; other failures are collected so one stuck namespace does not leak the rest.
func (c *KubernetesCleaner) Clean(ctx context.Context, ws workspace.Trial) error {
	resources, err := ws.ReadResources()
	if err != nil {
		return err
	}
	if resources.Empty() {
		c.logger.Debug("Nothing to clean", zap.String("workspace", ws.Dir))
		return nil
	}

	policy := metav1.DeletePropagationForeground
	var errs []error
	for _, ns := range resources.Namespaces {
		err := c.clientset.CoreV1().Namespaces().Delete(ctx, ns, metav1.DeleteOptions{PropagationPolicy: &policy})
		switch {
		case err == nil:
			c.logger.Info("Deleted trial namespace", zap.String("namespace", ns), zap.Stringer("hardware", ws.Hardware))
		case apierrors.IsNotFound(err):
			c.logger.Debug("Trial namespace already gone", zap.String("namespace", ns))
		default:
			errs = append(errs, fmt.Errorf("delete namespace %s: %w", ns, err))
		}
	}
	if len(resources.Stacks) > 0 {
		c.logger.Warn("Trial recorded stacks this cleaner cannot release",
			zap.Strings("stacks", resources.Stacks), zap.String("workspace", ws.Dir))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return ws.RecordResources(workspace.Resources{Stacks: resources.Stacks})
}
