package describe

import "fmt"

// element is the kind of code element being described.
type element int

const (
	elementFile element = iota
	elementClass
	elementMethod
	elementFunction
	elementComponent
	elementQA
)

// frameworkNames names each project type in prompts.
var frameworkNames = map[string]string{
	"yii2":   "Yii2 PHP",
	"bitrix": "Bitrix PHP",
	"python": "Python",
	"react":  "React TypeScript",
}

func frameworkName(projectType string) string {
	if name, ok := frameworkNames[projectType]; ok {
		return name
	}
	return "source code"
}

// systemPrompt returns the system message for describing el in projectType.
func systemPrompt(el element, projectType, language string) string {
	fw := frameworkName(projectType)
	var prompt string
	switch el {
	case elementFile:
		prompt = fmt.Sprintf("You are an assistant that analyzes files of %s projects. "+
			"Describe the purpose of files, classes and methods briefly and to the point.", fw)
	case elementClass:
		prompt = fmt.Sprintf("You are an assistant that analyzes classes of %s projects. "+
			"Describe the purpose of classes, their methods and relationships briefly and to the point.", fw)
	case elementMethod:
		prompt = fmt.Sprintf("You are an assistant that analyzes classes and their methods in %s projects. "+
			"Describe the purpose of methods briefly and to the point, taking the class context into account.", fw)
	case elementFunction:
		prompt = fmt.Sprintf("You are an assistant that analyzes %s projects. "+
			"Describe the purpose of global functions briefly and to the point, taking their code and context into account.", fw)
	case elementComponent:
		prompt = fmt.Sprintf("You are an assistant that analyzes %s projects. "+
			"Describe the purpose of UI components briefly and to the point, taking their props and markup into account.", fw)
	case elementQA:
		prompt = fmt.Sprintf("You are an assistant that writes question and answer pairs about %s code for a developer knowledge base. "+
			"Questions are ones a new team member would ask; answers are short and factual.", fw)
	}
	return prompt + " Always answer in " + language + "."
}

// userPrompt builds the user message. An empty code yields the "missing
// code" variant, which is never split.
func userPrompt(el element, subject subject, projectType, language, code string) string {
	fw := frameworkName(projectType)
	if code == "" {
		switch el {
		case elementFile:
			return fmt.Sprintf("Determine the purpose of the file %s in a %s project. The file is empty.", subject.name, fw)
		case elementClass:
			return fmt.Sprintf("Determine the purpose of the class %s in a %s project. The class code is missing or empty.", subject.name, fw)
		case elementMethod:
			return fmt.Sprintf("Determine the purpose of the method %s in class %s of a %s project.\n"+
				"The method code is missing or empty. The class is described as: %s.", subject.name, subject.owner, fw, subject.context)
		case elementComponent:
			return fmt.Sprintf("Determine the purpose of the component %s defined in file %s of a %s project.\n"+
				"The component code is missing or empty.", subject.name, subject.owner, fw)
		default:
			return fmt.Sprintf("Determine the purpose of the global function %s defined in file %s of a %s project.\n"+
				"The function code is missing or empty.", subject.name, subject.owner, fw)
		}
	}

	switch el {
	case elementFile:
		return fmt.Sprintf("Describe in %s the purpose of the file %s in a %s project.\n"+
			"Do not quote the file code or this prompt.\nContent:\n\n%s", language, subject.name, fw, code)
	case elementClass:
		return fmt.Sprintf("Describe in %s the purpose of the class %s in a %s project.\n"+
			"Do not quote the class code or this prompt.\nContent:\n\n%s", language, subject.name, fw, code)
	case elementMethod:
		return fmt.Sprintf("Describe in %s the purpose of the method %s in class %s of a %s project.\n"+
			"The class is described as: %s.\n"+
			"Do not quote the method code or this prompt.\nMethod content:\n\n%s", language, subject.name, subject.owner, fw, subject.context, code)
	case elementComponent:
		return fmt.Sprintf("Describe in %s the purpose of the component %s defined in file %s of a %s project.\n"+
			"Do not quote the component code or this prompt.\nComponent content:\n\n%s", language, subject.name, subject.owner, fw, code)
	case elementQA:
		return fmt.Sprintf("Write %d question and answer pairs in %s about the class %s of a %s project.\n"+
			"The class is described as: %s.\n"+
			"Use exactly this format for every pair:\nQ: <question>\nA: <answer>\n\nClass content:\n\n%s",
			subject.pairs, language, subject.name, fw, subject.context, code)
	default:
		return fmt.Sprintf("Describe in %s the purpose of the global function %s defined in file %s of a %s project.\n"+
			"Do not quote the function code or this prompt.\nFunction content:\n\n%s", language, subject.name, subject.owner, fw, code)
	}
}

// subject identifies the element a prompt is about.
type subject struct {
	name    string
	owner   string // class for methods, file for functions and components
	context string // class description for methods and Q&A
	pairs   int    // Q&A pairs requested
}
