package hwmon

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/markusressel/fancontrol/internal/util"
)

const (
	DefaultHwmonPath   = "/sys/class/hwmon"
	DefaultThermalPath = "/sys/class/thermal"
)

var pwmFileRegex = regexp.MustCompile(`^pwm[0-9]+$`)
var tempInputFileRegex = regexp.MustCompile(`^temp[0-9]+_input$`)

// TempChannel is one temperature input of a hwmon controller.
type TempChannel struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	InputPath  string `json:"input_path"`
	TempMilliC int    `json:"temp_mC"`
}

// PwmChannel is one PWM output of a hwmon controller.
type PwmChannel struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	EnablePath string `json:"enable_path"`
	Value      int    `json:"value"`
}

type Controller struct {
	Name     string        `json:"name"`
	Platform string        `json:"platform"`
	Path     string        `json:"path"`
	Temps    []TempChannel `json:"temps"`
	Pwms     []PwmChannel  `json:"pwms"`
}

// ThermalZone is one kernel thermal zone, the usual SoC temperature source on
// boards without a dedicated hwmon sensor chip.
type ThermalZone struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	InputPath  string `json:"input_path"`
	ModePath   string `json:"mode_path"`
	TempMilliC int    `json:"temp_mC"`
}

// GetControllers walks the hwmon class directory and reads every controller's
// temperature and PWM channels. Unreadable entries are skipped, discovery is
// best effort.
func GetControllers(basePath string) []*Controller {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil
	}

	var list []*Controller
	for _, entry := range entries {
		path := filepath.Join(basePath, entry.Name())

		controller := &Controller{
			Name:     entry.Name(),
			Platform: findPlatform(path),
			Path:     path,
			Temps:    getTempChannels(path),
			Pwms:     getPwmChannels(path),
		}
		if name, err := util.ReadTextFromFile(filepath.Join(path, "name")); err == nil {
			controller.Name = name
		}

		if len(controller.Temps) <= 0 && len(controller.Pwms) <= 0 {
			continue
		}
		list = append(list, controller)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return list
}

// GetThermalZones lists the kernel thermal zones under the thermal class
// directory.
func GetThermalZones(basePath string) []ThermalZone {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil
	}

	var list []ThermalZone
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "thermal_zone") {
			continue
		}
		path := filepath.Join(basePath, entry.Name())

		zone := ThermalZone{
			Name:      entry.Name(),
			InputPath: filepath.Join(path, "temp"),
			ModePath:  filepath.Join(path, "mode"),
		}
		if zoneType, err := util.ReadTextFromFile(filepath.Join(path, "type")); err == nil {
			zone.Type = zoneType
		}
		if temp, err := util.ReadIntFromFile(zone.InputPath); err == nil {
			zone.TempMilliC = temp
		} else {
			continue
		}
		if !util.FileExists(zone.ModePath) {
			zone.ModePath = ""
		}

		list = append(list, zone)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func getTempChannels(controllerPath string) []TempChannel {
	entries, err := os.ReadDir(controllerPath)
	if err != nil {
		return nil
	}

	var list []TempChannel
	for _, entry := range entries {
		if !tempInputFileRegex.MatchString(entry.Name()) {
			continue
		}

		inputPath := filepath.Join(controllerPath, entry.Name())
		temp, err := util.ReadIntFromFile(inputPath)
		if err != nil {
			continue
		}

		channel := TempChannel{
			Name:       strings.TrimSuffix(entry.Name(), "_input"),
			InputPath:  inputPath,
			TempMilliC: temp,
		}
		labelPath := filepath.Join(controllerPath, channel.Name+"_label")
		if label, err := util.ReadTextFromFile(labelPath); err == nil {
			channel.Label = label
		}

		list = append(list, channel)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func getPwmChannels(controllerPath string) []PwmChannel {
	entries, err := os.ReadDir(controllerPath)
	if err != nil {
		return nil
	}

	var list []PwmChannel
	for _, entry := range entries {
		if !pwmFileRegex.MatchString(entry.Name()) {
			continue
		}

		path := filepath.Join(controllerPath, entry.Name())
		value, err := util.ReadIntFromFile(path)
		if err != nil {
			continue
		}

		channel := PwmChannel{
			Name:  entry.Name(),
			Path:  path,
			Value: value,
		}
		enablePath := path + "_enable"
		if util.FileExists(enablePath) {
			channel.EnablePath = enablePath
		}

		list = append(list, channel)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// findPlatform resolves the device symlink of a controller to the platform
// device name it belongs to.
func findPlatform(controllerPath string) string {
	devicePath, err := filepath.EvalSymlinks(filepath.Join(controllerPath, "device"))
	if err != nil {
		return ""
	}
	return filepath.Base(devicePath)
}
