package helmcheck

import (
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// extractImages decodes one rendered manifest document and returns the
// container images of any workload kind it recognizes. Unknown kinds and
// undecodable documents yield nothing; lint owns structural complaints.
func extractImages(doc string) []string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil
	}

	var head metav1.TypeMeta
	if err := yaml.Unmarshal([]byte(doc), &head); err != nil {
		return nil
	}

	switch head.Kind {
	case "Deployment":
		var obj appsv1.Deployment
		if err := yaml.Unmarshal([]byte(doc), &obj); err != nil {
			return nil
		}
		return podImages(obj.Spec.Template.Spec)
	case "StatefulSet":
		var obj appsv1.StatefulSet
		if err := yaml.Unmarshal([]byte(doc), &obj); err != nil {
			return nil
		}
		return podImages(obj.Spec.Template.Spec)
	case "DaemonSet":
		var obj appsv1.DaemonSet
		if err := yaml.Unmarshal([]byte(doc), &obj); err != nil {
			return nil
		}
		return podImages(obj.Spec.Template.Spec)
	case "Job":
		var obj batchv1.Job
		if err := yaml.Unmarshal([]byte(doc), &obj); err != nil {
			return nil
		}
		return podImages(obj.Spec.Template.Spec)
	case "CronJob":
		var obj batchv1.CronJob
		if err := yaml.Unmarshal([]byte(doc), &obj); err != nil {
			return nil
		}
		return podImages(obj.Spec.JobTemplate.Spec.Template.Spec)
	case "Pod":
		var obj corev1.Pod
		if err := yaml.Unmarshal([]byte(doc), &obj); err != nil {
			return nil
		}
		return podImages(obj.Spec)
	}
	return nil
}

func podImages(spec corev1.PodSpec) []string {
	var images []string
	for _, c := range spec.InitContainers {
		if c.Image != "" {
			images = append(images, c.Image)
		}
	}
	for _, c := range spec.Containers {
		if c.Image != "" {
			images = append(images, c.Image)
		}
	}
	return images
}
