package skills

// Builtin returns the shipped canonical skill table.
func Builtin() []Entry {
	return []Entry{
		// frontend
		{Name: "javascript", Category: CategoryFrontend, Aliases: []string{"js", "ecmascript", "es6", "es2015", "vanilla js"}},
		{Name: "typescript", Category: CategoryFrontend, Aliases: []string{"ts"}},
		{Name: "react", Category: CategoryFrontend, Aliases: []string{"reactjs", "react.js", "react js"}},
		{Name: "angular", Category: CategoryFrontend, Aliases: []string{"angularjs", "angular.js", "angular 2"}},
		{Name: "vue", Category: CategoryFrontend, Aliases: []string{"vuejs", "vue.js", "vue js"}},
		{Name: "next.js", Category: CategoryFrontend, Aliases: []string{"nextjs", "next"}},
		{Name: "html", Category: CategoryFrontend, Aliases: []string{"html5"}},
		{Name: "css", Category: CategoryFrontend, Aliases: []string{"css3"}},
		{Name: "tailwind css", Category: CategoryFrontend, Aliases: []string{"tailwind", "tailwindcss"}},
		{Name: "sass", Category: CategoryFrontend, Aliases: []string{"scss"}},
		{Name: "redux", Category: CategoryFrontend, Aliases: []string{"redux toolkit", "rtk"}},

		// backend
		{Name: "node.js", Category: CategoryBackend, Aliases: []string{"node", "nodejs", "node js"}},
		{Name: "express", Category: CategoryBackend, Aliases: []string{"express.js", "expressjs"}},
		{Name: "python", Category: CategoryBackend, Aliases: []string{"py", "python3"}},
		{Name: "java", Category: CategoryBackend, Aliases: []string{"java se", "core java"}},
		{Name: "spring boot", Category: CategoryBackend, Aliases: []string{"springboot", "spring"}},
		{Name: "go", Category: CategoryBackend, Aliases: []string{"golang"}},
		{Name: "c++", Category: CategoryBackend, Aliases: []string{"cpp"}},
		{Name: "c#", Category: CategoryBackend, Aliases: []string{"csharp", "c sharp"}},
		{Name: ".net", Category: CategoryBackend, Aliases: []string{"dotnet", "asp.net", ".net core"}},
		{Name: "django", Category: CategoryBackend},
		{Name: "flask", Category: CategoryBackend},
		{Name: "php", Category: CategoryBackend},
		{Name: "ruby on rails", Category: CategoryBackend, Aliases: []string{"rails", "ror"}},
		{Name: "graphql", Category: CategoryBackend, Aliases: []string{"gql"}},
		{Name: "rest api", Category: CategoryBackend, Aliases: []string{"rest", "restful", "restful api", "rest apis"}},

		// database
		{Name: "sql", Category: CategoryDatabase},
		{Name: "postgresql", Category: CategoryDatabase, Aliases: []string{"postgres", "psql", "pgsql"}},
		{Name: "mysql", Category: CategoryDatabase},
		{Name: "mongodb", Category: CategoryDatabase, Aliases: []string{"mongo"}},
		{Name: "redis", Category: CategoryDatabase},
		{Name: "firebase", Category: CategoryDatabase, Aliases: []string{"firestore"}},

		// devops
		{Name: "docker", Category: CategoryDevOps, Aliases: []string{"containers"}},
		{Name: "kubernetes", Category: CategoryDevOps, Aliases: []string{"k8s"}},
		{Name: "aws", Category: CategoryDevOps, Aliases: []string{"amazon web services"}},
		{Name: "gcp", Category: CategoryDevOps, Aliases: []string{"google cloud", "google cloud platform"}},
		{Name: "azure", Category: CategoryDevOps, Aliases: []string{"microsoft azure"}},
		{Name: "ci-cd", Category: CategoryDevOps, Aliases: []string{"cicd", "ci cd", "continuous integration"}},
		{Name: "terraform", Category: CategoryDevOps},
		{Name: "jenkins", Category: CategoryDevOps},
		{Name: "linux", Category: CategoryDevOps},

		// testing
		{Name: "jest", Category: CategoryTesting},
		{Name: "cypress", Category: CategoryTesting},
		{Name: "selenium", Category: CategoryTesting},
		{Name: "junit", Category: CategoryTesting},
		{Name: "pytest", Category: CategoryTesting},
		{Name: "unit testing", Category: CategoryTesting, Aliases: []string{"unit tests"}},

		// tools
		{Name: "git", Category: CategoryTools},
		{Name: "github", Category: CategoryTools},
		{Name: "jira", Category: CategoryTools},
		{Name: "figma", Category: CategoryTools},
		{Name: "webpack", Category: CategoryTools},
		{Name: "postman", Category: CategoryTools},

		// data-ml
		{Name: "machine learning", Category: CategoryDataML, Aliases: []string{"ml"}},
		{Name: "deep learning", Category: CategoryDataML, Aliases: []string{"dl"}},
		{Name: "tensorflow", Category: CategoryDataML, Aliases: []string{"tf"}},
		{Name: "pytorch", Category: CategoryDataML, Aliases: []string{"torch"}},
		{Name: "scikit-learn", Category: CategoryDataML, Aliases: []string{"sklearn", "scikit learn"}},
		{Name: "pandas", Category: CategoryDataML},
		{Name: "numpy", Category: CategoryDataML},
		{Name: "natural language processing", Category: CategoryDataML, Aliases: []string{"nlp"}},
		{Name: "tableau", Category: CategoryDataML},
		{Name: "power bi", Category: CategoryDataML, Aliases: []string{"powerbi"}},
		{Name: "excel", Category: CategoryDataML, Aliases: []string{"microsoft excel", "ms excel"}},
	}
}
